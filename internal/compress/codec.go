package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compressor 以默认参数压缩整段数据。相同输入必须产出相同输出，缓存竞态才是无害的。
type Compressor interface {
	Compress(src []byte) ([]byte, error)
}

// CompressorFunc adapts a function to the Compressor interface.
type CompressorFunc func(src []byte) ([]byte, error)

// Compress makes CompressorFunc satisfy Compressor.
func (f CompressorFunc) Compress(src []byte) ([]byte, error) {
	return f(src)
}

// DefaultCompressors 返回三种编码族的默认实现。
func DefaultCompressors() map[Encoding]Compressor {
	return map[Encoding]Compressor{
		Zstd:   CompressorFunc(CompressZstd),
		Brotli: CompressorFunc(CompressBrotli),
		Gzip:   CompressorFunc(CompressGzip),
	}
}

// Compress 不经过缓存直接压缩，供预压缩构建流程使用。
func Compress(enc Encoding, src []byte) ([]byte, error) {
	switch enc {
	case Zstd:
		return CompressZstd(src)
	case Brotli:
		return CompressBrotli(src)
	case Gzip:
		return CompressGzip(src)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
	}
}

// CompressGzip 使用 gzip 默认级别压缩；不写入文件名与 mtime，保证输出确定。
func CompressGzip(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// CompressBrotli 使用 brotli 默认质量压缩。
func CompressBrotli(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("brotli write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli close: %w", err)
	}
	return buf.Bytes(), nil
}

// zstdEncoder 全进程共享；EncodeAll 可被并发调用。
var zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
})

// CompressZstd 使用 zstd 默认级别压缩整段数据。
func CompressZstd(src []byte) ([]byte, error) {
	enc, err := zstdEncoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(src, make([]byte, 0, len(src)/2+64)), nil
}

// Decompress 还原压缩数据，构建 Bundle 时用于校验旁路文件。
func Decompress(enc Encoding, data []byte) ([]byte, error) {
	switch enc {
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
	}
}
