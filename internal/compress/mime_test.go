package compress

import "testing"

func TestIsWellKnownCompressible(t *testing.T) {
	testCases := []struct {
		mimeType string
		want     bool
	}{
		{"text/html", true},
		{"text/css", true},
		{"text/html; charset=utf-8", true},
		{"application/javascript", true},
		{"application/json", true},
		{"application/json5", true},
		{"application/ld+json", true},
		{"application/jsonml+json", true},
		{"application/xml", true},
		{"Application/JSON", true},
		{"image/jpeg", false},
		{"application/zip", false},
		{"application/octet-stream", false},
		{"foo/application/json", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := IsWellKnownCompressible(tc.mimeType); got != tc.want {
			t.Fatalf("IsWellKnownCompressible(%q) = %v, want %v", tc.mimeType, got, tc.want)
		}
	}
}
