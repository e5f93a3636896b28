// Package asset defines the capability interface every servable in-memory
// resource satisfies, plus the two concrete backends the service ships with:
//
//   - Bundle: built once at startup from an fs.FS (usually an embed.FS). Each
//     asset carries a precomputed fingerprint, a mime type guessed from its
//     extension and optional precompressed gzip/br/zstd variants, either read
//     from sidecar files or produced in memory when they beat the raw size.
//   - Live: the development backend. Files are re-read on every lookup and
//     never carry precompressed variants.
//
// Backends are chosen by configuration through the loader registry, never by
// inspecting concrete types at request time.
package asset
