// Package header turns raw request header text into structured values for the
// responder: comma separated token lists (Accept-Encoding, If-None-Match),
// single entity tags and HTTP/RFC 2822 timestamps.
//
// Parsing never fails a request. Malformed items are dropped and a malformed
// header degrades to "absent", so callers fall back to sending the full
// resource instead of erroring.
package header
