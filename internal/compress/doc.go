// Package compress owns the content codings the responder can emit (zstd,
// brotli, gzip) and the process-wide memoization cache for on-the-fly
// compressed bodies. Cache entries are keyed by the resource fingerprint, so a
// fingerprint+encoding pair is compressed at most once per process apart from
// benign races between concurrent misses. There is no eviction: the key space
// is bounded by the fixed set of embedded resources.
package compress
