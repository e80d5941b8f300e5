// Package hash provides the xxHash64 primitive used for block-file
// integrity checksums.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum64 computes the xxHash64 of data, used by the codec package as the
// block-file trailer checksum: a mismatch on read is a CorruptBlock
// condition (spec.md §7).
func Checksum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}
