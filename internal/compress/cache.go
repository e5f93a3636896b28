package compress

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Options 控制压缩缓存的构造参数。
type Options struct {
	// Logger 为空时使用 logrus 全局 logger。
	Logger *logrus.Logger
	// MaxBytesPerFamily 限制单个编码族可记忆的压缩字节数；<= 0 表示不限制。
	// 超出后新结果仍会返回给调用方，只是不再写入缓存。
	MaxBytesPerFamily int64
	// Compressors 覆盖默认编码实现，未覆盖的编码族沿用默认值。
	Compressors map[Encoding]Compressor
}

// Cache 为每个编码族维护一张独立的 fingerprint → 压缩结果映射，各自持有读写锁。
// 映射表集合在构造后只读，因此不存在跨编码族的全局锁。
type Cache struct {
	logger   *logrus.Logger
	families map[Encoding]*family
}

type family struct {
	encoding   Encoding
	compressor Compressor
	limit      int64

	mu      sync.RWMutex
	entries map[string][]byte
	size    int64

	hits    atomic.Int64
	misses  atomic.Int64
	refused atomic.Int64
}

// FamilyStats 是单个编码族的观测快照。
type FamilyStats struct {
	Encoding Encoding `json:"encoding"`
	Entries  int      `json:"entries"`
	Bytes    int64    `json:"bytes"`
	Hits     int64    `json:"hits"`
	Misses   int64    `json:"misses"`
	Refused  int64    `json:"refused"`
}

// NewCache 构建压缩缓存。进程内应只创建一次，并显式传递给 Responder。
func NewCache(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	compressors := DefaultCompressors()
	for enc, compressor := range opts.Compressors {
		if compressor != nil {
			compressors[enc] = compressor
		}
	}

	families := make(map[Encoding]*family, len(compressors))
	for enc, compressor := range compressors {
		families[enc] = &family{
			encoding:   enc,
			compressor: compressor,
			limit:      opts.MaxBytesPerFamily,
			entries:    make(map[string][]byte),
		}
	}

	return &Cache{logger: logger, families: families}
}

// GetOrCompress 先以只读锁按 fingerprint 查找；命中时直接返回共享切片（调用方不得修改），
// 未命中时压缩 raw 并尝试写入。并发未命中可能重复压缩，结果相同，不影响正确性。
func (c *Cache) GetOrCompress(enc Encoding, fingerprint string, raw []byte) ([]byte, error) {
	f, ok := c.families[enc]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
	}

	if data, ok := f.lookup(fingerprint); ok {
		f.hits.Add(1)
		return data, nil
	}
	f.misses.Add(1)

	compressed, err := f.compressor.Compress(raw)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"action":      "compress",
			"encoding":    enc.String(),
			"fingerprint": fingerprint,
		}).Warn("compress_failed")
		return nil, fmt.Errorf("compress %s: %w", enc, err)
	}

	if !f.store(fingerprint, compressed) {
		f.refused.Add(1)
		c.logger.WithFields(logrus.Fields{
			"action":      "compress_cache_store",
			"encoding":    enc.String(),
			"fingerprint": fingerprint,
			"bytes":       len(compressed),
			"limit":       f.limit,
		}).Debug("compress_cache_full")
	}
	return compressed, nil
}

// Stats 返回按编码名排序的各编码族统计。
func (c *Cache) Stats() []FamilyStats {
	result := make([]FamilyStats, 0, len(c.families))
	for _, f := range c.families {
		result = append(result, f.stats())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Encoding < result[j].Encoding
	})
	return result
}

func (f *family) lookup(fingerprint string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.entries[fingerprint]
	return data, ok
}

// store 返回 false 表示因容量限制未写入。已有条目时保留旧值，两者内容必然一致。
func (f *family) store(fingerprint string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[fingerprint]; exists {
		return true
	}
	size := int64(len(data))
	if f.limit > 0 && f.size+size > f.limit {
		return false
	}
	f.entries[fingerprint] = data
	f.size += size
	return true
}

func (f *family) stats() FamilyStats {
	f.mu.RLock()
	entries, size := len(f.entries), f.size
	f.mu.RUnlock()
	return FamilyStats{
		Encoding: f.encoding,
		Entries:  entries,
		Bytes:    size,
		Hits:     f.hits.Load(),
		Misses:   f.misses.Load(),
		Refused:  f.refused.Load(),
	}
}
