package responder

import (
	"net/http"
	"strconv"

	"github.com/any-hub/embed-responder/internal/asset"
)

// Write copies a Decision onto w. Negotiable responses additionally get
// Vary: Accept-Encoding, including identity ones, so shared caches key on
// the request coding.
func Write(w http.ResponseWriter, d Decision) {
	h := w.Header()
	for _, f := range d.Header {
		h.Add(f.Name, f.Value)
	}
	if d.Kind == KindSend && d.Body != nil {
		h.Set("Content-Length", strconv.Itoa(len(d.Body)))
	}
	if d.Negotiable {
		h.Add("Vary", "Accept-Encoding")
	}
	w.WriteHeader(d.Status)
	if d.Body != nil {
		_, _ = w.Write(d.Body)
	}
}

// Handler serves source over net/http with a single policy. A request for a
// directory path ("" or ending in '/') is resolved against index.
func Handler(source asset.Source, r *Responder, policy Policy, index string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := asset.ResolveIndex(req.URL.Path, index)
		var res asset.Resource
		if cleaned, ok := asset.CleanName(name); ok {
			res = r.Lookup(source, cleaned)
		}
		Write(w, r.Decide(Request{Method: req.Method, Header: req.Header}, res, policy))
	})
}
