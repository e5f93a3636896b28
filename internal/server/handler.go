package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/any-hub/embed-responder/internal/asset"
	"github.com/any-hub/embed-responder/internal/logging"
	"github.com/any-hub/embed-responder/internal/responder"
)

// HandlerOptions 描述 Handler 的依赖。
type HandlerOptions struct {
	Source    asset.Source
	Responder *responder.Responder
	Logger    *logrus.Logger
	// IndexFile 用于目录路径（"/" 或以 "/" 结尾）。
	IndexFile string
}

// Handler 将命中路由的请求交给 responder 决策，并把 Decision 写回 Fiber。
type Handler struct {
	source    asset.Source
	responder *responder.Responder
	logger    *logrus.Logger
	indexFile string
}

// NewHandler 校验依赖并构建 Handler。
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Source == nil {
		return nil, errors.New("asset source is required")
	}
	if opts.Responder == nil {
		return nil, errors.New("responder is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		source:    opts.Source,
		responder: opts.Responder,
		logger:    logger,
		indexFile: opts.IndexFile,
	}, nil
}

// Handle 实现 AssetHandler。
func (h *Handler) Handle(c fiber.Ctx, route *Route) error {
	started := time.Now()
	reqPath := requestPath(c)

	var res asset.Resource
	name := asset.ResolveIndex(route.AssetName(reqPath), h.indexFile)
	if clean, ok := asset.CleanName(name); ok {
		res = h.responder.Lookup(h.source, clean)
	}

	decision := h.responder.Decide(responder.Request{
		Method: c.Method(),
		Header: requestHeader{header: &c.Request().Header},
	}, res, route.Policy)

	err := writeDecision(c, decision)
	h.logResult(c, route, reqPath, decision, started, err)
	return err
}

func writeDecision(c fiber.Ctx, d responder.Decision) error {
	c.Response().Header.SetNoDefaultContentType(true)
	for _, field := range d.Header {
		c.Set(field.Name, field.Value)
	}
	if d.Negotiable {
		c.Set(fiber.HeaderVary, fiber.HeaderAcceptEncoding)
	}
	c.Status(d.Status)
	if d.Body == nil {
		return nil
	}
	return c.Send(d.Body)
}

func (h *Handler) logResult(c fiber.Ctx, route *Route, path string, d responder.Decision, started time.Time, err error) {
	fields := logging.RequestFields(route.Prefix, path, c.Method(), d.Status, string(d.Encoding))
	fields["action"] = "serve"
	fields["decision"] = d.Kind.String()
	fields["policy"] = route.Policy.String()
	fields["bytes"] = len(d.Body)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID := RequestID(c); requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("serve_failed")
		return
	}
	h.logger.WithFields(fields).Info("serve_complete")
}

// requestHeader 让 fasthttp 请求头满足 responder.HeaderGetter；
// 同名多行按 net/http 的习惯以 ", " 合并。
type requestHeader struct {
	header *fasthttp.RequestHeader
}

func (r requestHeader) Get(name string) string {
	values := r.header.PeekAll(name)
	switch len(values) {
	case 0:
		return ""
	case 1:
		return string(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
