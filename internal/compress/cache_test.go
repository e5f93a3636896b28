package compress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const lorem = "Et quos non sed magnam reiciendis praesentium quod libero. Architecto optio tempora iure " +
	"aspernatur rerum voluptatem quas. Eos ut atque quas perspiciatis dolorem quidem. Cum et quo et. " +
	"Voluptatum ut est id eligendi illum inventore. Est non rerum vel rem. Molestiae similique alias nihil."

func TestGetOrCompressMemoizesPerFingerprint(t *testing.T) {
	for _, enc := range Preference {
		t.Run(enc.String(), func(t *testing.T) {
			counter := &countingCompressor{inner: DefaultCompressors()[enc]}
			cache := newTestCache(t, Options{Compressors: map[Encoding]Compressor{enc: counter}})

			first, err := cache.GetOrCompress(enc, "lorem", []byte(lorem))
			if err != nil {
				t.Fatalf("first call failed: %v", err)
			}
			second, err := cache.GetOrCompress(enc, "lorem", []byte(lorem))
			if err != nil {
				t.Fatalf("second call failed: %v", err)
			}

			if !bytes.Equal(first, second) {
				t.Fatalf("cached bytes differ between calls")
			}
			if n := counter.calls.Load(); n != 1 {
				t.Fatalf("expected exactly one compression, got %d", n)
			}
			if got := decompress(t, enc, second); got != lorem {
				t.Fatalf("roundtrip mismatch: %q", got)
			}
		})
	}
}

func TestGetOrCompressKeysByFingerprintNotBytes(t *testing.T) {
	counter := &countingCompressor{inner: CompressorFunc(CompressGzip)}
	cache := newTestCache(t, Options{Compressors: map[Encoding]Compressor{Gzip: counter}})

	if _, err := cache.GetOrCompress(Gzip, "a", []byte("alpha")); err != nil {
		t.Fatalf("compress a: %v", err)
	}
	if _, err := cache.GetOrCompress(Gzip, "b", []byte("bravo")); err != nil {
		t.Fatalf("compress b: %v", err)
	}
	if n := counter.calls.Load(); n != 2 {
		t.Fatalf("distinct fingerprints should compress separately, got %d calls", n)
	}

	// Families are independent: gzip entries never satisfy brotli lookups.
	data, err := cache.GetOrCompress(Brotli, "a", []byte("alpha"))
	if err != nil {
		t.Fatalf("compress brotli: %v", err)
	}
	if got := decompress(t, Brotli, data); got != "alpha" {
		t.Fatalf("brotli roundtrip mismatch: %q", got)
	}
}

func TestGetOrCompressUnknownEncoding(t *testing.T) {
	cache := newTestCache(t, Options{})
	if _, err := cache.GetOrCompress(Encoding("deflate"), "x", []byte("x")); !errors.Is(err, ErrUnknownEncoding) {
		t.Fatalf("expected ErrUnknownEncoding, got %v", err)
	}
}

func TestGetOrCompressFailureIsNotMemoized(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	flaky := CompressorFunc(func(src []byte) ([]byte, error) {
		if fail.Load() {
			return nil, errors.New("boom")
		}
		return CompressGzip(src)
	})
	cache := newTestCache(t, Options{Compressors: map[Encoding]Compressor{Gzip: flaky}})

	if _, err := cache.GetOrCompress(Gzip, "fp", []byte(lorem)); err == nil {
		t.Fatalf("expected compressor error to surface")
	}
	fail.Store(false)
	data, err := cache.GetOrCompress(Gzip, "fp", []byte(lorem))
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got := decompress(t, Gzip, data); got != lorem {
		t.Fatalf("roundtrip mismatch after retry")
	}
}

func TestGetOrCompressReturnsBytesWhenBudgetExhausted(t *testing.T) {
	counter := &countingCompressor{inner: CompressorFunc(CompressGzip)}
	cache := newTestCache(t, Options{
		MaxBytesPerFamily: 1,
		Compressors:       map[Encoding]Compressor{Gzip: counter},
	})

	for i := 0; i < 2; i++ {
		data, err := cache.GetOrCompress(Gzip, "big", []byte(lorem))
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if got := decompress(t, Gzip, data); got != lorem {
			t.Fatalf("call %d returned wrong bytes", i)
		}
	}
	if n := counter.calls.Load(); n != 2 {
		t.Fatalf("refused entries must be recomputed, got %d calls", n)
	}

	stats := findStats(t, cache, Gzip)
	if stats.Entries != 0 || stats.Refused != 2 || stats.Misses != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetOrCompressConcurrentReaders(t *testing.T) {
	counter := &countingCompressor{inner: CompressorFunc(CompressZstd)}
	cache := newTestCache(t, Options{Compressors: map[Encoding]Compressor{Zstd: counter}})

	want, err := CompressZstd([]byte(lorem))
	if err != nil {
		t.Fatalf("reference compress: %v", err)
	}

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			got, err := cache.GetOrCompress(Zstd, "shared", []byte(lorem))
			if err != nil {
				return err
			}
			if !bytes.Equal(got, want) {
				return errors.New("concurrent result differs from reference")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent access failed: %v", err)
	}

	stats := findStats(t, cache, Zstd)
	if stats.Entries != 1 {
		t.Fatalf("expected a single entry, got %d", stats.Entries)
	}
	if stats.Hits+stats.Misses != 64 {
		t.Fatalf("expected 64 lookups, got %+v", stats)
	}
	if counter.calls.Load() != stats.Misses {
		t.Fatalf("compressions (%d) should equal misses (%d)", counter.calls.Load(), stats.Misses)
	}
}

func TestStatsSortedByEncoding(t *testing.T) {
	cache := newTestCache(t, Options{})
	stats := cache.Stats()
	if len(stats) != 3 {
		t.Fatalf("expected 3 families, got %d", len(stats))
	}
	if stats[0].Encoding != Brotli || stats[1].Encoding != Gzip || stats[2].Encoding != Zstd {
		t.Fatalf("unexpected order: %+v", stats)
	}
}

type countingCompressor struct {
	inner Compressor
	calls atomic.Int64
}

func (c *countingCompressor) Compress(src []byte) ([]byte, error) {
	c.calls.Add(1)
	return c.inner.Compress(src)
}

func newTestCache(t *testing.T, opts Options) *Cache {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	opts.Logger = logger
	return NewCache(opts)
}

func findStats(t *testing.T, cache *Cache, enc Encoding) FamilyStats {
	t.Helper()
	for _, s := range cache.Stats() {
		if s.Encoding == enc {
			return s
		}
	}
	t.Fatalf("no stats for %s", enc)
	return FamilyStats{}
}

func decompress(t *testing.T, enc Encoding, data []byte) string {
	t.Helper()
	out, err := Decompress(enc, data)
	if err != nil {
		t.Fatalf("decompress %s: %v", enc, err)
	}
	return strings.TrimSpace(string(out))
}
