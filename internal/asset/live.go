package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"

	"github.com/any-hub/embed-responder/internal/compress"
)

// Live 每次查询都重新读取文件，适合开发时直接编辑资源目录。
type Live struct {
	fsys fs.FS
}

// NewLive 基于任意 fs.FS（通常为 os.DirFS）构建开发模式资源源。
func NewLive(fsys fs.FS) *Live {
	return &Live{fsys: fsys}
}

// liveFile 在查询时生成，不携带预压缩版本。
type liveFile struct {
	data         []byte
	fingerprint  string
	mimeType     string
	lastModified int64
}

// Get 实现 Source；目录视为不存在。
func (l *Live) Get(name string) (Resource, error) {
	clean, ok := CleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	info, err := fs.Stat(l.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", clean, err)
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}
	data, err := fs.ReadFile(l.fsys, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}

	var lastModified int64
	if mod := info.ModTime(); !mod.IsZero() {
		lastModified = mod.Unix()
	}
	return &liveFile{
		data:         data,
		fingerprint:  Fingerprint(data),
		mimeType:     mime.TypeByExtension(path.Ext(clean)),
		lastModified: lastModified,
	}, nil
}

func (f *liveFile) Data() []byte        { return f.data }
func (f *liveFile) Fingerprint() string { return f.fingerprint }

func (f *liveFile) Precompressed(compress.Encoding) ([]byte, bool) {
	return nil, false
}

func (f *liveFile) MimeType() (string, bool) {
	return f.mimeType, f.mimeType != ""
}

func (f *liveFile) LastModified() (int64, bool) {
	return f.lastModified, f.lastModified != 0
}
