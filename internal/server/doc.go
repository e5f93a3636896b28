// Package server hosts the Fiber HTTP service that owns the request/response
// lifecycle for embedded assets. It attaches recover and request-id
// middlewares, maps URL prefixes to compression policies through the
// RouteTable built from config, and hands each request to an AssetHandler that
// asks the responder for a Decision and writes it back. Diagnostics under
// /-/ are registered by the routes subpackage; keep exports narrow and accept
// explicit dependencies.
package server
