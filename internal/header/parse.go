package header

import (
	"net/http"
	"strings"
	"time"
)

// ParseCommaList 按逗号拆分头部值并去除两侧空白，空项直接丢弃；头部缺失时返回 nil。
func ParseCommaList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// ParseIfNoneMatch 解析 If-None-Match，返回带引号的 ETag 列表（已去除 W/ 前缀）。
func ParseIfNoneMatch(raw string) []string {
	return filterList(raw, ParseETag)
}

// ParseAcceptEncoding 解析 Accept-Encoding，仅保留编码名；q 权重被忽略。
func ParseAcceptEncoding(raw string) []string {
	return filterList(raw, ParseEncoding)
}

// ParseETag 匹配 `W/"value"` 或 `"value"`，返回含引号的 value，弱校验前缀会被剥离。
func ParseETag(token string) (string, bool) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "W/")
	if len(token) < 3 || token[0] != '"' || token[len(token)-1] != '"' {
		return "", false
	}
	if strings.ContainsRune(token[1:len(token)-1], '"') {
		return "", false
	}
	return token, true
}

// ParseEncoding 去掉 `;q=...` 等参数后返回小写编码名，例如 "gzip"、"br"、"zstd"。
func ParseEncoding(token string) (string, bool) {
	name, _, _ := strings.Cut(token, ";")
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, " \t,\"") {
		return "", false
	}
	return strings.ToLower(name), true
}

// dateLayouts 覆盖 HTTP-date 的三种格式以及 RFC 2822 的数字时区写法。
var dateLayouts = []string{
	http.TimeFormat,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseHTTPDate 解析 If-Unmodified-Since 等时间头；无法识别时返回 false。
func ParseHTTPDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func filterList(raw string, parseItem func(string) (string, bool)) []string {
	items := ParseCommaList(raw)
	if len(items) == 0 {
		return nil
	}
	result := items[:0]
	for _, item := range items {
		if parsed, ok := parseItem(item); ok {
			result = append(result, parsed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
