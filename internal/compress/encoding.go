package compress

import (
	"errors"
	"fmt"
	"strings"
)

// Encoding 表示 Content-Encoding 令牌，空字符串代表不压缩。
type Encoding string

const (
	Identity Encoding = ""
	Zstd     Encoding = "zstd"
	Brotli   Encoding = "br"
	Gzip     Encoding = "gzip"
)

// ErrUnknownEncoding 表示请求了未注册的编码族。
var ErrUnknownEncoding = errors.New("unknown content encoding")

// Preference 为固定的协商顺序：压缩率优先，客户端 q 权重不参与排序。
var Preference = []Encoding{Zstd, Brotli, Gzip}

// String 返回编码令牌，Identity 输出 "identity" 便于日志阅读。
func (e Encoding) String() string {
	if e == Identity {
		return "identity"
	}
	return string(e)
}

// SidecarExt 返回预压缩旁路文件的扩展名，例如 app.js.br。
func (e Encoding) SidecarExt() string {
	switch e {
	case Zstd:
		return ".zst"
	case Brotli:
		return ".br"
	case Gzip:
		return ".gz"
	default:
		return ""
	}
}

// ParseEncoding 将配置中的编码名称标准化，兼容 "brotli" 等别名。
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "zstd", "zst":
		return Zstd, nil
	case "br", "brotli":
		return Brotli, nil
	case "gzip", "gz":
		return Gzip, nil
	default:
		return Identity, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
}
