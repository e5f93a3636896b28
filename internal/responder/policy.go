package responder

import (
	"fmt"
	"strings"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
)

// Policy governs when a compressed body may be sent.
type Policy uint8

const (
	// IfPrecompressed only uses variants produced ahead of time. It is the
	// zero value and therefore the default.
	IfPrecompressed Policy = iota
	// Never sends the identity body, even when a variant exists.
	Never
	// IfWellKnown compresses on the fly when the mime type is text-like.
	IfWellKnown
	// Always compresses whenever the client accepts an encoding.
	Always
)

var policyNames = map[Policy]string{
	IfPrecompressed: "if-precompressed",
	Never:           "never",
	IfWellKnown:     "if-well-known",
	Always:          "always",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParsePolicy accepts the configuration spellings of a policy. Matching is
// case-insensitive and ignores '-', '_' and spaces, so "IfWellKnown",
// "if_well_known" and "if-well-known" are equivalent. Empty means default.
func ParsePolicy(raw string) (Policy, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(raw))
	switch normalized {
	case "", "ifprecompressed":
		return IfPrecompressed, nil
	case "never":
		return Never, nil
	case "ifwellknown":
		return IfWellKnown, nil
	case "always":
		return Always, nil
	default:
		return IfPrecompressed, fmt.Errorf("unknown compression policy %q", raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// permits reports whether the policy allows enc for res, ignoring what the
// client accepts.
func (p Policy) permits(res asset.Resource, enc compress.Encoding) bool {
	switch p {
	case Never:
		return false
	case IfPrecompressed:
		_, ok := res.Precompressed(enc)
		return ok
	case IfWellKnown:
		mimeType, ok := res.MimeType()
		return ok && compress.IsWellKnownCompressible(mimeType)
	case Always:
		return true
	default:
		return false
	}
}
