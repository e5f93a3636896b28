package site

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
)

func TestEmbeddedSiteBuildsBundle(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	bundle, err := asset.BuildBundle(FS(), asset.BuildOptions{Logger: logger})
	if err != nil {
		t.Fatalf("build bundle: %v", err)
	}
	if bundle.Len() != 4 {
		t.Fatalf("expected 4 assets, got %+v", bundle.List())
	}

	res, err := bundle.Get("css/site.css")
	if err != nil {
		t.Fatalf("get css: %v", err)
	}
	variant, ok := res.Precompressed(compress.Gzip)
	if !ok {
		t.Fatalf("site.css.gz should be folded into site.css")
	}
	plain, err := compress.Decompress(compress.Gzip, variant)
	if err != nil || string(plain) != string(res.Data()) {
		t.Fatalf("sidecar must decompress to the css source: %v", err)
	}
	if _, err := bundle.Get("css/site.css.gz"); err == nil {
		t.Fatalf("sidecars are not served as standalone assets")
	}
}
