package asset

import (
	"bytes"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/embed-responder/internal/compress"
)

// BuildOptions 控制 Bundle 的构建方式。
type BuildOptions struct {
	// Precompress 列出需要在内存中预压缩的编码族；已有旁路文件的编码不会重复压缩。
	Precompress []compress.Encoding
	// FallbackModTime 用于 embed.FS 等不提供修改时间的文件系统。
	FallbackModTime time.Time
	Logger          *logrus.Logger
}

// Bundle 是启动时一次性构建、此后只读的资源集合。
type Bundle struct {
	assets map[string]*Asset
	names  []string
}

// NewBundle 以给定资源构建 Bundle，重复路径会返回错误。
func NewBundle(assets ...*Asset) (*Bundle, error) {
	b := &Bundle{assets: make(map[string]*Asset, len(assets))}
	for _, a := range assets {
		name, ok := CleanName(a.name)
		if !ok {
			return nil, fmt.Errorf("invalid asset name %q", a.name)
		}
		if _, exists := b.assets[name]; exists {
			return nil, fmt.Errorf("duplicate asset %s", name)
		}
		a.name = name
		b.assets[name] = a
		b.names = append(b.names, name)
	}
	sort.Strings(b.names)
	return b, nil
}

// BuildBundle 遍历 fsys 构建 Bundle：旁路文件（x.gz/x.br/x.zst）作为 x 的预压缩版本挂载，
// 修改时间或解压内容与 x 不一致的旁路文件会被忽略；其余文件按 opts.Precompress 在内存中压缩，仅保留比原文更小的结果。
func BuildBundle(fsys fs.FS, opts BuildOptions) (*Bundle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	files := make(map[string]struct{})
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files[name] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk assets: %w", err)
	}

	assets := make([]*Asset, 0, len(files))
	for name := range files {
		if base, _ := splitSidecar(name); base != "" {
			if _, ok := files[base]; ok {
				continue
			}
		}

		a, err := buildAsset(fsys, name, files, opts, logger)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return NewBundle(assets...)
}

// Get 实现 Source。
func (b *Bundle) Get(name string) (Resource, error) {
	clean, ok := CleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	a, ok := b.assets[clean]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Len 返回资源数量。
func (b *Bundle) Len() int {
	return len(b.names)
}

// List 按路径排序返回所有资源摘要。
func (b *Bundle) List() []Info {
	result := make([]Info, 0, len(b.names))
	for _, name := range b.names {
		result = append(result, b.assets[name].Info())
	}
	return result
}

func buildAsset(fsys fs.FS, name string, files map[string]struct{}, opts BuildOptions, logger *logrus.Logger) (*Asset, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("stat asset %s: %w", name, err)
	}
	modTime := info.ModTime()
	if modTime.IsZero() {
		modTime = opts.FallbackModTime
	}

	variants := make(map[compress.Encoding][]byte)
	for _, enc := range compress.Preference {
		sidecar := name + enc.SidecarExt()
		if _, ok := files[sidecar]; !ok {
			continue
		}
		body, err := fs.ReadFile(fsys, sidecar)
		if err != nil {
			return nil, fmt.Errorf("read sidecar %s: %w", sidecar, err)
		}
		if reason := staleSidecar(fsys, sidecar, info.ModTime(), enc, body, data); reason != "" {
			logger.WithFields(logrus.Fields{
				"action":   "load_sidecar",
				"asset":    name,
				"sidecar":  sidecar,
				"encoding": enc.String(),
				"reason":   reason,
			}).Warn("sidecar_stale")
			continue
		}
		variants[enc] = body
	}

	for _, enc := range opts.Precompress {
		if _, ok := variants[enc]; ok {
			continue
		}
		body, err := compress.Compress(enc, data)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"action":   "precompress",
				"asset":    name,
				"encoding": enc.String(),
			}).Warn("precompress_failed")
			continue
		}
		if len(body) < len(data) {
			variants[enc] = body
		}
	}

	return NewAsset(name, data, AssetOptions{ModTime: modTime, Variants: variants}), nil
}

// staleSidecar 判断旁路文件是否已不属于当前内容：修改时间须与原文件一致，
// 解压结果须与原文逐字节相同。返回空串表示可用。
func staleSidecar(fsys fs.FS, sidecar string, baseModTime time.Time, enc compress.Encoding, body, data []byte) string {
	info, err := fs.Stat(fsys, sidecar)
	if err != nil {
		return "stat_failed"
	}
	if !info.ModTime().Equal(baseModTime) {
		return "mod_time_mismatch"
	}
	decoded, err := compress.Decompress(enc, body)
	if err != nil {
		return "decode_failed"
	}
	if !bytes.Equal(decoded, data) {
		return "content_mismatch"
	}
	return ""
}

// splitSidecar 识别旁路文件，返回原文件路径与编码；非旁路文件返回空串。
func splitSidecar(name string) (string, compress.Encoding) {
	for _, enc := range compress.Preference {
		if ext := enc.SidecarExt(); strings.HasSuffix(name, ext) && len(name) > len(ext) {
			return strings.TrimSuffix(name, ext), enc
		}
	}
	return "", compress.Identity
}
