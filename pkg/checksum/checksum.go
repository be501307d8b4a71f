// Package checksum computes the engine's signed 32-bit CRC32, used for
// block checksums (by pkg/pyparse) and nowhere else — file-level
// identity uses BLAKE3 instead (pkg/fingerprint).
package checksum

import "hash/crc32"

// Of returns the IEEE CRC32 of source, reinterpreted bit-for-bit as a
// signed 32-bit integer. Deterministic across runs, platforms, and
// processes for identical bytes — this is the stability property change
// detection depends on (spec §8, invariant 1).
func Of(source string) int32 {
	return int32(crc32.ChecksumIEEE([]byte(source)))
}

// OfBytes is Of for a raw byte slice, for a caller that already has
// bytes rather than a string.
func OfBytes(source []byte) int32 {
	return int32(crc32.ChecksumIEEE(source))
}
