package responder

import (
	"slices"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
)

// ChooseEncoding picks the first of zstd, br and gzip that the client accepts
// and the policy permits for res. Client q-values are not consulted.
func ChooseEncoding(res asset.Resource, accepted []string, policy Policy) compress.Encoding {
	for _, enc := range compress.Preference {
		if slices.Contains(accepted, string(enc)) && policy.permits(res, enc) {
			return enc
		}
	}
	return compress.Identity
}
