package responder

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/compress"
	"github.com/any-hub/embed-responder/internal/header"
)

// HeaderGetter is the read side of a request header bag. http.Header
// satisfies it; Fiber contexts are adapted in internal/server.
type HeaderGetter interface {
	Get(name string) string
}

// Request carries the parts of an incoming request the engine looks at.
type Request struct {
	Method string
	Header HeaderGetter
}

func (r Request) get(name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}

// Options configures a Responder.
type Options struct {
	// Cache memoizes on-the-fly compression. A private cache is created when
	// nil, but processes should share one.
	Cache *compress.Cache
	// Encodings restricts which codings may be emitted. Empty enables all.
	Encodings []compress.Encoding
	Logger    *logrus.Logger
}

// Responder turns (request, resource, policy) into a Decision. It is safe for
// concurrent use.
type Responder struct {
	cache     *compress.Cache
	encodings []compress.Encoding
	logger    *logrus.Logger
}

// New builds a Responder.
func New(opts Options) *Responder {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cache := opts.Cache
	if cache == nil {
		cache = compress.NewCache(compress.Options{Logger: logger})
	}
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = compress.Preference
	}
	return &Responder{
		cache:     cache,
		encodings: slices.Clone(encodings),
		logger:    logger,
	}
}

// Cache exposes the compression cache for diagnostics.
func (r *Responder) Cache() *compress.Cache {
	return r.cache
}

// Lookup resolves name against source. Lookup failures other than "not
// found" are logged and reported as absence.
func (r *Responder) Lookup(source asset.Source, name string) asset.Resource {
	res, err := source.Get(name)
	if err != nil {
		if !errors.Is(err, asset.ErrNotFound) {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"action": "lookup",
				"name":   name,
			}).Warn("asset_lookup_failed")
		}
		return nil
	}
	return res
}

// Decide evaluates one request. A nil res yields NotFound.
func (r *Responder) Decide(req Request, res asset.Resource, policy Policy) Decision {
	if res == nil {
		return notFound()
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return methodNotAllowed()
	}

	etag := asset.ETag(res)

	// If-None-Match takes precedence: once it parses to at least one tag the
	// timestamp check is skipped, match or not.
	if tags := header.ParseIfNoneMatch(req.get("If-None-Match")); len(tags) > 0 {
		if slices.Contains(tags, etag) {
			return r.notModified(res, etag)
		}
		return r.send(req, res, etag, policy)
	}

	if lastModified, ok := res.LastModified(); ok {
		if since, ok := header.ParseHTTPDate(req.get("If-Unmodified-Since")); ok {
			if lastModified > since.Unix() {
				return r.send(req, res, etag, policy)
			}
			return r.notModified(res, etag)
		}
	}

	return r.send(req, res, etag, policy)
}

func (r *Responder) notModified(res asset.Resource, etag string) Decision {
	fields := []Field{{Name: "ETag", Value: etag}}
	if lastModified, ok := res.LastModified(); ok {
		fields = append(fields, Field{Name: "Last-Modified", Value: FormatTimestamp(lastModified)})
	}
	fields = append(fields, Field{Name: "Cache-Control", Value: "no-cache"})
	return Decision{Kind: KindNotModified, Status: http.StatusNotModified, Header: fields}
}

func (r *Responder) send(req Request, res asset.Resource, etag string, policy Policy) Decision {
	fields := []Field{{Name: "ETag", Value: etag}}
	if lastModified, ok := res.LastModified(); ok {
		fields = append(fields, Field{Name: "Last-Modified", Value: FormatTimestamp(lastModified)})
	}
	if mimeType, ok := res.MimeType(); ok {
		fields = append(fields, Field{Name: "Content-Type", Value: mimeType})
	}
	fields = append(fields, Field{Name: "Cache-Control", Value: "no-cache"})

	decision := Decision{
		Kind:       KindSend,
		Status:     http.StatusOK,
		Header:     fields,
		Negotiable: r.negotiable(res, policy),
	}
	if req.Method == http.MethodHead {
		return decision
	}

	accepted := r.enabled(header.ParseAcceptEncoding(req.get("Accept-Encoding")))
	enc := ChooseEncoding(res, accepted, policy)
	body, enc := r.body(res, enc)
	if enc != compress.Identity {
		decision.Header = append(decision.Header, Field{Name: "Content-Encoding", Value: string(enc)})
	}
	decision.Encoding = enc
	decision.Body = body
	return decision
}

// body prefers a precompressed variant, then the cache. A codec failure falls
// back to the identity body.
func (r *Responder) body(res asset.Resource, enc compress.Encoding) ([]byte, compress.Encoding) {
	if enc == compress.Identity {
		return res.Data(), compress.Identity
	}
	if data, ok := res.Precompressed(enc); ok {
		return data, enc
	}
	data, err := r.cache.GetOrCompress(enc, res.Fingerprint(), res.Data())
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"action":      "negotiate",
			"encoding":    enc.String(),
			"fingerprint": res.Fingerprint(),
		}).Warn("compress_fallback_identity")
		return res.Data(), compress.Identity
	}
	return data, enc
}

// negotiable 判断在客户端接受全部已启用编码时是否会选中非 identity 编码。
func (r *Responder) negotiable(res asset.Resource, policy Policy) bool {
	all := make([]string, len(r.encodings))
	for i, enc := range r.encodings {
		all[i] = string(enc)
	}
	return ChooseEncoding(res, all, policy) != compress.Identity
}

func (r *Responder) enabled(accepted []string) []string {
	if len(accepted) == 0 {
		return accepted
	}
	result := make([]string, 0, len(accepted))
	for _, name := range accepted {
		if slices.Contains(r.encodings, compress.Encoding(name)) {
			result = append(result, name)
		}
	}
	return result
}

// FormatTimestamp renders epoch seconds as an IMF-fixdate HTTP-date.
func FormatTimestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(http.TimeFormat)
}
