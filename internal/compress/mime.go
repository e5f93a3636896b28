package compress

import "strings"

var wellKnownCompressible = map[string]struct{}{
	"application/javascript":  {},
	"application/json":        {},
	"application/json5":       {},
	"application/ld+json":     {},
	"application/jsonml+json": {},
	"application/xml":         {},
}

// IsWellKnownCompressible 判断 mime 类型是否属于明显可压缩的文本类：text/* 及常见 JSON/JS/XML。
// 参数部分（如 "; charset=utf-8"）在比较前被忽略。
func IsWellKnownCompressible(mimeType string) bool {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if strings.HasPrefix(base, "text/") {
		return true
	}
	_, ok := wellKnownCompressible[base]
	return ok
}
