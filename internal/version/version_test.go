package version

import (
	"strings"
	"testing"
)

func TestFullIncludesInjectedValues(t *testing.T) {
	prevVersion, prevCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = prevVersion, prevCommit })

	Version, Commit = "1.2.3", "abc1234"
	got := Full()
	if !strings.HasPrefix(got, "embed-responder ") || !strings.Contains(got, "1.2.3") || !strings.Contains(got, "abc1234") {
		t.Fatalf("unexpected version string %q", got)
	}
}
