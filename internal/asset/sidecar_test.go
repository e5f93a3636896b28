package asset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/any-hub/embed-responder/internal/compress"
)

func TestWriteSidecars(t *testing.T) {
	dir := t.TempDir()
	html := strings.Repeat("<li>item</li>\n", 200)
	writeFile(t, filepath.Join(dir, "index.html"), html)
	writeFile(t, filepath.Join(dir, "tiny.txt"), "x")
	mod := time.Date(2022, time.January, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(dir, "index.html"), mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	report, err := WriteSidecars(context.Background(), dir, compress.Preference, quietLogger())
	if err != nil {
		t.Fatalf("write sidecars: %v", err)
	}
	if report.Files != 2 || report.Written != 3 || report.Skipped != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	for _, enc := range compress.Preference {
		sidecar := filepath.Join(dir, "index.html"+enc.SidecarExt())
		body, err := os.ReadFile(sidecar)
		if err != nil {
			t.Fatalf("read %s: %v", sidecar, err)
		}
		plain, err := compress.Decompress(enc, body)
		if err != nil || string(plain) != html {
			t.Fatalf("%s sidecar does not decode: %v", enc, err)
		}
		info, err := os.Stat(sidecar)
		if err != nil {
			t.Fatalf("stat %s: %v", sidecar, err)
		}
		if !info.ModTime().Equal(mod) {
			t.Fatalf("sidecar should inherit source mod time, got %v", info.ModTime())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "tiny.txt.gz")); !os.IsNotExist(err) {
		t.Fatalf("no sidecar expected for incompressible file")
	}

	// A second run leaves sidecars alone as inputs and rewrites the same outputs.
	again, err := WriteSidecars(context.Background(), dir, compress.Preference, quietLogger())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Files != 2 {
		t.Fatalf("sidecars must not be treated as inputs: %+v", again)
	}

	bundle, err := BuildBundle(os.DirFS(dir), BuildOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("build bundle: %v", err)
	}
	if bundle.Len() != 2 {
		t.Fatalf("sidecars should fold into their sources, got %d assets", bundle.Len())
	}
	res, _ := bundle.Get("index.html")
	if _, ok := res.Precompressed(compress.Zstd); !ok {
		t.Fatalf("bundle should pick up the zstd sidecar")
	}
}

func TestWriteSidecarsRemovesStaleSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	large := strings.Repeat("compressible line\n", 150)
	writeFile(t, path, large)

	if _, err := WriteSidecars(context.Background(), dir, []compress.Encoding{compress.Gzip}, quietLogger()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := os.Stat(path + ".gz"); err != nil {
		t.Fatalf("gzip sidecar expected: %v", err)
	}

	writeFile(t, path, "x")
	report, err := WriteSidecars(context.Background(), dir, []compress.Encoding{compress.Gzip}, quietLogger())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Files != 1 || report.Written != 0 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(path + ".gz"); !os.IsNotExist(err) {
		t.Fatalf("stale gzip sidecar should be removed, stat err = %v", err)
	}

	bundle, err := BuildBundle(os.DirFS(dir), BuildOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("build bundle: %v", err)
	}
	res, err := bundle.Get("a.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(res.Data()) != "x" {
		t.Fatalf("unexpected data %q", res.Data())
	}
	if _, ok := res.Precompressed(compress.Gzip); ok {
		t.Fatalf("no gzip variant expected after the file shrank")
	}
}

func TestWriteSidecarsTreatsOrphanAsInput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "orphan.txt.gz"), strings.Repeat("orphan ", 300))

	report, err := WriteSidecars(context.Background(), dir, []compress.Encoding{compress.Gzip}, quietLogger())
	if err != nil {
		t.Fatalf("write sidecars: %v", err)
	}
	if report.Files != 1 || report.Written != 1 {
		t.Fatalf("orphan sidecar-named file should be compressed: %+v", report)
	}
	if _, err := os.Stat(filepath.Join(dir, "orphan.txt.gz.gz")); err != nil {
		t.Fatalf("expected orphan.txt.gz.gz: %v", err)
	}

	bundle, err := BuildBundle(os.DirFS(dir), BuildOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("build bundle: %v", err)
	}
	if _, err := bundle.Get("orphan.txt.gz"); err != nil {
		t.Fatalf("orphan should be served as its own asset: %v", err)
	}
}

func TestWriteSidecarsHonoursContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), strings.Repeat("a", 4096))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := WriteSidecars(ctx, dir, compress.Preference, quietLogger()); err == nil {
		t.Fatalf("cancelled context should abort")
	}
}

func TestWriteSidecarsRequiresDir(t *testing.T) {
	if _, err := WriteSidecars(context.Background(), "", compress.Preference, nil); err == nil {
		t.Fatalf("empty dir should fail")
	}
}
