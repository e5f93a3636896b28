package asset

import "testing"

func TestFingerprintIsStableAndContentDerived(t *testing.T) {
	a := Fingerprint([]byte("hello"))
	if a != Fingerprint([]byte("hello")) {
		t.Fatalf("fingerprint must be stable")
	}
	if a == Fingerprint([]byte("hello!")) {
		t.Fatalf("different content must produce a different fingerprint")
	}
	// sha256("hello"), unpadded standard base64.
	if a != "LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ" {
		t.Fatalf("unexpected fingerprint %s", a)
	}
}

func TestETagQuotesFingerprint(t *testing.T) {
	res := NewAsset("index.html", []byte("hello"), AssetOptions{})
	if got := ETag(res); got != `"LPJNul+wow4m6DsqxbninhsWHlwfp0JecwQzYpOLmCQ"` {
		t.Fatalf("unexpected etag %s", got)
	}
}

func TestCleanName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/index.html", "index.html", true},
		{"css//site.css", "css/site.css", true},
		{"/a/../b.txt", "b.txt", true},
		{"../../etc/passwd", "etc/passwd", true},
		{"/", "", false},
		{"", "", false},
	}
	for _, tc := range testCases {
		got, ok := CleanName(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("CleanName(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveIndex(t *testing.T) {
	testCases := []struct {
		path, index, want string
	}{
		{"/", "index.html", "/index.html"},
		{"", "index.html", "index.html"},
		{"/docs/", "index.html", "/docs/index.html"},
		{"/docs", "index.html", "/docs"},
		{"/", "", "/"},
	}
	for _, tc := range testCases {
		if got := ResolveIndex(tc.path, tc.index); got != tc.want {
			t.Fatalf("ResolveIndex(%q, %q) = %q, want %q", tc.path, tc.index, got, tc.want)
		}
	}
}
