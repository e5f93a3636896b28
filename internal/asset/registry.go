package asset

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// DefaultLoaderKey 是未配置 Mode 时使用的加载器。
const DefaultLoaderKey = "bundle"

// LoadFunc 根据文件系统与构建参数生成资源源。
type LoadFunc func(fsys fs.FS, opts BuildOptions) (Source, error)

// LoaderMetadata 描述一种资源后端，供配置校验和诊断端使用。
type LoaderMetadata struct {
	Key           string   `json:"key"`
	Description   string   `json:"description"`
	Precompressed bool     `json:"precompressed"`
	Load          LoadFunc `json:"-"`
}

var globalLoaders = newLoaderRegistry()

type loaderRegistry struct {
	mu      sync.RWMutex
	loaders map[string]LoaderMetadata
}

func newLoaderRegistry() *loaderRegistry {
	return &loaderRegistry{loaders: make(map[string]LoaderMetadata)}
}

func init() {
	MustRegisterLoader(LoaderMetadata{
		Key:           "bundle",
		Description:   "assets read once at startup with precomputed fingerprints and precompressed variants",
		Precompressed: true,
		Load: func(fsys fs.FS, opts BuildOptions) (Source, error) {
			return BuildBundle(fsys, opts)
		},
	})
	MustRegisterLoader(LoaderMetadata{
		Key:         "live",
		Description: "assets re-read on every request, for development",
		Load: func(fsys fs.FS, _ BuildOptions) (Source, error) {
			return NewLive(fsys), nil
		},
	})
}

// RegisterLoader 将加载器加入全局注册表，重复键会返回错误。
func RegisterLoader(meta LoaderMetadata) error {
	return globalLoaders.register(meta)
}

// MustRegisterLoader 在注册失败时 panic，适合 init() 中调用。
func MustRegisterLoader(meta LoaderMetadata) {
	if err := RegisterLoader(meta); err != nil {
		panic(err)
	}
}

// ResolveLoader 返回指定键的加载器。
func ResolveLoader(key string) (LoaderMetadata, bool) {
	return globalLoaders.resolve(key)
}

// Loaders 返回按键排序的加载器列表。
func Loaders() []LoaderMetadata {
	return globalLoaders.list()
}

// Load 按 key 选择加载器并构建资源源。
func Load(key string, fsys fs.FS, opts BuildOptions) (Source, error) {
	if strings.TrimSpace(key) == "" {
		key = DefaultLoaderKey
	}
	meta, ok := ResolveLoader(key)
	if !ok {
		return nil, fmt.Errorf("asset loader %s is not registered", key)
	}
	source, err := meta.Load(fsys, opts)
	if err != nil {
		return nil, fmt.Errorf("load assets (%s): %w", meta.Key, err)
	}
	return source, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *loaderRegistry) register(meta LoaderMetadata) error {
	key := normalizeKey(meta.Key)
	if key == "" {
		return fmt.Errorf("loader key is required")
	}
	if meta.Load == nil {
		return fmt.Errorf("loader %s has no Load func", key)
	}
	meta.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[key]; exists {
		return fmt.Errorf("loader %s already registered", key)
	}
	r.loaders[key] = meta
	return nil
}

func (r *loaderRegistry) resolve(key string) (LoaderMetadata, bool) {
	normalized := normalizeKey(key)
	if normalized == "" {
		return LoaderMetadata{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.loaders[normalized]
	return meta, ok
}

func (r *loaderRegistry) list() []LoaderMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.loaders) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.loaders))
	for key := range r.loaders {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]LoaderMetadata, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.loaders[key])
	}
	return result
}
