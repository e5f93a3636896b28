package responder

import (
	"net/http"
	"strings"

	"github.com/any-hub/embed-responder/internal/compress"
)

// Kind is the terminal outcome of a decision.
type Kind uint8

const (
	KindSend Kind = iota
	KindNotModified
	KindNotFound
	KindMethodNotAllowed
)

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindNotModified:
		return "not_modified"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "unknown"
	}
}

// Field is a single response header, kept in emission order.
type Field struct {
	Name  string
	Value string
}

// Decision describes the response the HTTP layer should write.
type Decision struct {
	Kind   Kind
	Status int
	Header []Field
	// Encoding is the Content-Encoding of Body; Identity when uncompressed.
	Encoding compress.Encoding
	// Negotiable reports that some enabled encoding is permitted for the
	// resource, so the representation depends on Accept-Encoding.
	Negotiable bool
	// Body is nil for HEAD and every non-send outcome. It may alias cached
	// bytes and must not be modified.
	Body []byte
}

// Get returns the first header value for name, case-insensitively.
func (d Decision) Get(name string) string {
	for _, f := range d.Header {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

func notFound() Decision {
	return Decision{Kind: KindNotFound, Status: http.StatusNotFound}
}

func methodNotAllowed() Decision {
	return Decision{
		Kind:   KindMethodNotAllowed,
		Status: http.StatusMethodNotAllowed,
		Header: []Field{{Name: "Allow", Value: "GET, HEAD"}},
	}
}
