// Package compress provides compression and decompression codecs for the
// deferred sections of a serialized block (the id<->identity-key maps and
// the series vector: S5, S6, S7 in the on-disk layout described by the
// codec package).
//
// The eager sections of a block (timestamps, FST, posting lists) are always
// written uncompressed so a PackedBlock can answer index questions without
// paying a decompression cost on every open; compression only applies to
// the bytes a full Unpack would otherwise have to read anyway.
//
//   - None: no compression (fastest, largest)
//   - Zstd: best compression ratio, moderate speed
//   - S2: balanced compression and speed
//   - LZ4: fastest decompression, moderate compression
//
// # Algorithm selection
//
//	Workload               Recommended   Reason
//	Storage-constrained     Zstd          best compression ratio
//	High write throughput   S2            balanced speed/compression
//	Query-heavy             LZ4           fastest decompression
//	CPU-constrained         None          no compression overhead
package compress
