// Package fingerprint is the engine's fingerprint builder (spec component
// C4): it turns one Python file on disk into a types.Fingerprint — a
// BLAKE3 content hash, an mtime, and the ordered block checksums
// pkg/pyparse extracts from it.
package fingerprint

import (
	"encoding/hex"
	"os"

	"github.com/zeebo/blake3"

	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
	"github.com/PaulM5406/pytest-diff/pkg/pyparse"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

// Build reads filename from disk and computes its Fingerprint. Blocks is
// populated in source order, module block first. IoError is returned for
// a read/stat failure, ParseError for source pyparse cannot scan.
func Build(filename string) (types.Fingerprint, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return types.Fingerprint{}, engerrors.IO(filename, err, "reading file")
	}

	info, err := os.Stat(filename)
	if err != nil {
		return types.Fingerprint{}, engerrors.IO(filename, err, "stat failed")
	}

	blocks, err := pyparse.ParseModule(string(data))
	if err != nil {
		return types.Fingerprint{}, err
	}

	checksums := make([]int32, len(blocks))
	for i, b := range blocks {
		checksums[i] = b.Checksum
	}

	sum := blake3.Sum256(data)

	return types.Fingerprint{
		Filename:  filename,
		Checksums: checksums,
		FileHash:  hex.EncodeToString(sum[:]),
		Mtime:     float64(info.ModTime().UnixNano()) / 1e9,
		Blocks:    blocks,
	}, nil
}

// BuildFromSource computes a Fingerprint directly from in-memory source,
// with a caller-supplied mtime, for a caller that already holds the
// file's content; it performs no read or stat of its own.
func BuildFromSource(filename string, source []byte, mtime float64) (types.Fingerprint, error) {
	blocks, err := pyparse.ParseModule(string(source))
	if err != nil {
		return types.Fingerprint{}, err
	}

	checksums := make([]int32, len(blocks))
	for i, b := range blocks {
		checksums[i] = b.Checksum
	}

	sum := blake3.Sum256(source)

	return types.Fingerprint{
		Filename:  filename,
		Checksums: checksums,
		FileHash:  hex.EncodeToString(sum[:]),
		Mtime:     mtime,
		Blocks:    blocks,
	}, nil
}
