package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/embed-responder/internal/compress"
)

// SidecarReport 汇总一次预压缩的结果。
type SidecarReport struct {
	Files   int `json:"files"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// WriteSidecars 为 dir 下每个普通文件生成 x.gz/x.br/x.zst 旁路文件。
// 压缩结果不小于原文时跳过并删除该编码的旧旁路文件；写入采用临时文件 + rename，
// 并继承源文件的修改时间。没有源文件的 .gz/.br/.zst 按普通文件处理。
func WriteSidecars(ctx context.Context, dir string, encodings []compress.Encoding, logger *logrus.Logger) (SidecarReport, error) {
	var report SidecarReport
	if dir == "" {
		return report, errors.New("asset directory required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	err := filepath.WalkDir(dir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if base, _ := splitSidecar(filePath); base != "" && isRegularFile(base) {
			return nil
		}

		report.Files++
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		for _, enc := range encodings {
			body, err := compress.Compress(enc, data)
			if err != nil {
				return fmt.Errorf("compress %s (%s): %w", filePath, enc, err)
			}
			if len(body) >= len(data) {
				// 旧 sidecar 不再对应当前内容
				if err := os.Remove(filePath + enc.SidecarExt()); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("remove stale sidecar for %s: %w", filePath, err)
				}
				report.Skipped++
				continue
			}
			if err := writeAtomic(ctx, filePath+enc.SidecarExt(), bytes.NewReader(body), info.ModTime()); err != nil {
				return fmt.Errorf("write sidecar for %s: %w", filePath, err)
			}
			report.Written++
			logger.WithFields(logrus.Fields{
				"action":   "precompress",
				"file":     filePath,
				"encoding": enc.String(),
				"bytes":    len(body),
			}).Debug("sidecar_written")
		}
		return nil
	})
	return report, err
}

func isRegularFile(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && info.Mode().IsRegular()
}

func writeAtomic(ctx context.Context, filePath string, body io.Reader, modTime time.Time) error {
	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".sidecar-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	if !modTime.IsZero() {
		return os.Chtimes(filePath, modTime, modTime)
	}
	return nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
