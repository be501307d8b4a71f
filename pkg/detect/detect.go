// Package detect is the engine's change detector (spec component C8): it
// walks a project tree and decides, for each tracked Python file,
// whether it has changed since the baseline, escalating through three
// progressively more expensive tiers — mtime, file hash, then block
// checksums — so the common case (an untouched file) never needs a
// re-parse.
package detect

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/PaulM5406/pytest-diff/pkg/fingerprint"
	"github.com/PaulM5406/pytest-diff/pkg/log"
	"github.com/PaulM5406/pytest-diff/pkg/store"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

// mtimeEpsilon is the threshold below which two mtimes are considered
// equal, absorbing filesystem timestamp-resolution jitter (spec §8,
// invariant 7).
const mtimeEpsilon = 0.001

// BaselineLookup resolves a file's recorded baseline fingerprint. The
// store's GetBaselineFingerprint satisfies this directly.
type BaselineLookup interface {
	GetBaselineFingerprint(filename string) (types.Fingerprint, bool, error)
}

var _ BaselineLookup = (*store.Store)(nil)

// FindPythonFiles walks root, returning the absolute, canonical paths of
// every .py file under it that also falls within at least one scope
// path. Symlinks are not followed; directories named "." + anything,
// "__pycache__", or "node_modules" are skipped entirely.
func FindPythonFiles(root string, scopePaths []string) ([]string, error) {
	absScopes := make([]string, len(scopePaths))
	for i, p := range scopePaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		absScopes[i] = abs
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if name == "__pycache__" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if filepath.Ext(path) != ".py" {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		for _, scope := range absScopes {
			if strings.HasPrefix(abs, scope) {
				files = append(files, abs)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// findChangedChecksums returns every checksum present in old but absent
// from current — the blocks whose old content no longer exists anywhere
// in the file. This is deliberately asymmetric: a block that is brand
// new in current (and wasn't in old) is not itself "changed", since
// nothing depended on a checksum that didn't exist yet.
func findChangedChecksums(old, current []int32) []int32 {
	currentSet := make(map[int32]struct{}, len(current))
	for _, c := range current {
		currentSet[c] = struct{}{}
	}

	var changed []int32
	for _, c := range old {
		if _, ok := currentSet[c]; !ok {
			changed = append(changed, c)
		}
	}
	return changed
}

func checksumsEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkFileChanged runs the three-tier cascade for one file against its
// baseline. modified is false if the file is unchanged or untracked
// (no baseline entry, or removed from disk since the baseline was
// taken); changed holds the block checksums no longer present in the
// current file, which may legitimately be empty even when modified is
// true (e.g. an edited block whose old text still appears verbatim as
// another block in the same file).
func checkFileChanged(baseline BaselineLookup, filename string) (modified bool, changed []int32, err error) {
	base, ok, err := baseline.GetBaselineFingerprint(filename)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}

	info, err := os.Stat(filename)
	if err != nil {
		return false, nil, nil // file removed since baseline; treated as untracked, not an error
	}
	mtime := float64(info.ModTime().UnixNano()) / 1e9
	if abs(mtime-base.Mtime) < mtimeEpsilon {
		return false, nil, nil
	}

	current, err := fingerprint.Build(filename)
	if err != nil {
		return false, nil, err
	}
	if current.FileHash == base.FileHash {
		return false, nil, nil
	}
	if checksumsEqual(base.Checksums, current.Checksums) {
		return false, nil, nil
	}

	return true, findChangedChecksums(base.Checksums, current.Checksums), nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// DetectChanges scans every Python file under root that falls within
// scopePaths and, for each, runs the mtime -> hash -> checksum cascade
// against its baseline. A per-file failure (e.g. an unreadable or
// unparseable file) is logged and that file is skipped — it never
// surfaces as DetectChanges' own error, matching the "never fatal"
// error-handling design of spec §4.8/§7: one bad file must not discard
// every change already detected among the rest.
func DetectChanges(baseline BaselineLookup, root string, scopePaths []string) (types.ChangedFiles, error) {
	files, err := FindPythonFiles(root, scopePaths)
	if err != nil {
		return types.ChangedFiles{}, err
	}

	result := types.ChangedFiles{ChangedBlocks: make(map[string][]int32)}

	for _, f := range files {
		modified, changed, err := checkFileChanged(baseline, f)
		if err != nil {
			log.Warn("detect: skipping %s: %v", f, err)
			continue
		}
		if !modified {
			continue
		}
		result.Modified = append(result.Modified, f)
		if len(changed) > 0 {
			result.ChangedBlocks[f] = changed
		}
	}

	return result, nil
}
