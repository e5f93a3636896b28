// Package responder is the response decision engine. Given a request method,
// its headers, a resource (or nothing) and a compression policy it produces a
// Decision: status, ordered headers and an optional body. It evaluates
// If-None-Match before If-Unmodified-Since, negotiates zstd > br > gzip
// against what the client accepts and the policy permits, and pulls
// on-the-fly compressed bodies from the shared compress.Cache.
//
// The engine performs no I/O and never returns errors; malformed headers
// degrade to "absent" and codec failures degrade to the identity body.
// Writing the Decision onto the wire belongs to the HTTP layer (see Write for
// net/http and internal/server for Fiber).
package responder
