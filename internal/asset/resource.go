package asset

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"path"
	"strings"

	"github.com/any-hub/embed-responder/internal/compress"
)

// Resource 是响应引擎消费的能力接口，所有实现均不可变。
type Resource interface {
	// Data 返回完整的未压缩内容。
	Data() []byte
	// Precompressed 返回构建期生成的压缩版本；没有时返回 false。
	Precompressed(enc compress.Encoding) ([]byte, bool)
	// Fingerprint 是稳定的内容哈希，直接作为 ETag 主体使用。
	Fingerprint() string
	// MimeType 在能够推断时返回 Content-Type。
	MimeType() (string, bool)
	// LastModified 返回 Unix 秒级时间戳。
	LastModified() (int64, bool)
}

// Source 根据请求路径返回资源；不存在时返回 ErrNotFound。
type Source interface {
	Get(name string) (Resource, error)
}

// ErrNotFound 表示资源不存在。
var ErrNotFound = errors.New("asset not found")

// ETag 将 fingerprint 包装成带引号的强校验 ETag。
func ETag(r Resource) string {
	return `"` + r.Fingerprint() + `"`
}

// Fingerprint 计算内容的 SHA-256，并以无填充 base64 输出。
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawStdEncoding.EncodeToString(sum[:])
}

// CleanName 将 URL 路径规整为 fs.FS 风格的相对路径，拒绝越界路径。
func CleanName(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	return name, name != ""
}

// ResolveIndex 将目录形式的请求路径（空或以 '/' 结尾）补全为 index 文件。
// index 为空时原样返回。
func ResolveIndex(urlPath, index string) string {
	if index == "" {
		return urlPath
	}
	if urlPath == "" || strings.HasSuffix(urlPath, "/") {
		return urlPath + index
	}
	return urlPath
}
