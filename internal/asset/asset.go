package asset

import (
	"mime"
	"path"
	"sort"
	"time"

	"github.com/any-hub/embed-responder/internal/compress"
)

// Asset 是构建期生成的资源：哈希、mime 与预压缩版本都在创建时确定。
type Asset struct {
	name         string
	data         []byte
	fingerprint  string
	mimeType     string
	lastModified int64
	variants     map[compress.Encoding][]byte
}

// AssetOptions 描述 NewAsset 的可选元数据。
type AssetOptions struct {
	// MimeType 为空时按扩展名推断。
	MimeType string
	// ModTime 为零值时表示未知。
	ModTime time.Time
	// Variants 为预压缩数据，键为编码族。
	Variants map[compress.Encoding][]byte
}

// Info 是 Asset 的只读摘要，供诊断接口输出。
type Info struct {
	Name          string   `json:"name"`
	Fingerprint   string   `json:"fingerprint"`
	MimeType      string   `json:"mime_type,omitempty"`
	Size          int      `json:"size"`
	LastModified  int64    `json:"last_modified,omitempty"`
	Precompressed []string `json:"precompressed,omitempty"`
}

// NewAsset 计算 fingerprint 并冻结资源内容。
func NewAsset(name string, data []byte, opts AssetOptions) *Asset {
	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(path.Ext(name))
	}
	var lastModified int64
	if !opts.ModTime.IsZero() {
		lastModified = opts.ModTime.Unix()
	}
	variants := make(map[compress.Encoding][]byte, len(opts.Variants))
	for enc, body := range opts.Variants {
		if enc != compress.Identity && body != nil {
			variants[enc] = body
		}
	}
	return &Asset{
		name:         name,
		data:         data,
		fingerprint:  Fingerprint(data),
		mimeType:     mimeType,
		lastModified: lastModified,
		variants:     variants,
	}
}

func (a *Asset) Name() string        { return a.name }
func (a *Asset) Data() []byte        { return a.data }
func (a *Asset) Fingerprint() string { return a.fingerprint }

func (a *Asset) Precompressed(enc compress.Encoding) ([]byte, bool) {
	body, ok := a.variants[enc]
	return body, ok
}

func (a *Asset) MimeType() (string, bool) {
	return a.mimeType, a.mimeType != ""
}

func (a *Asset) LastModified() (int64, bool) {
	return a.lastModified, a.lastModified != 0
}

// Info 返回资源摘要，预压缩编码按名称排序。
func (a *Asset) Info() Info {
	encodings := make([]string, 0, len(a.variants))
	for enc := range a.variants {
		encodings = append(encodings, string(enc))
	}
	sort.Strings(encodings)
	return Info{
		Name:          a.name,
		Fingerprint:   a.fingerprint,
		MimeType:      a.mimeType,
		Size:          len(a.data),
		LastModified:  a.lastModified,
		Precompressed: encodings,
	}
}
