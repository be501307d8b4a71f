// Package coverage is the engine's coverage filter (spec component C5):
// given per-test executed-line data, it decides which files are in scope
// and reduces each admitted file's fingerprint down to the blocks the
// test actually exercised.
package coverage

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/PaulM5406/pytest-diff/pkg/enginecache"
	"github.com/PaulM5406/pytest-diff/pkg/fingerprint"
	"github.com/PaulM5406/pytest-diff/pkg/log"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

// Request is the input to ProcessCoverageData: for every file a test
// touched, the set of line numbers the tracer recorded as executed.
type Request struct {
	ProjectRoot string
	ScopePaths  []string
	TestFile    string
	Coverage    map[string][]int
	Cache       *enginecache.Cache // optional; nil disables fingerprint caching
}

// shouldProcessFile applies the admission rules: the file must be a .py
// source file, rooted under ProjectRoot, contained in at least one scope
// path, and not itself a test file — except TestFile, which is always
// admitted so a test's own body can still be fingerprinted for its
// module block.
func shouldProcessFile(req Request, path string) bool {
	if filepath.Ext(path) != ".py" {
		return false
	}
	if !strings.HasPrefix(path, req.ProjectRoot) {
		return false
	}
	inScope := false
	for _, scope := range req.ScopePaths {
		if strings.HasPrefix(path, scope) {
			inScope = true
			break
		}
	}
	if !inScope {
		return false
	}
	if path == req.TestFile {
		return true
	}
	return !isTestFile(path)
}

func isTestFile(path string) bool {
	if strings.Contains(filepath.ToSlash(path), "/tests/") {
		return true
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	if strings.HasSuffix(base, "_test.py") {
		return true
	}
	return false
}

// filterExecutedBlocks keeps only the blocks whose [BodyStartLine,
// EndLine] range contains at least one executed line. Using
// BodyStartLine rather than StartLine is deliberate (spec invariant
// S9): a decorated-but-never-called function must not be marked
// executed merely because its decorator ran at import time.
func filterExecutedBlocks(blocks []types.Block, executedLines []int) []types.Block {
	if len(executedLines) == 0 {
		return nil
	}
	lineSet := make(map[int]struct{}, len(executedLines))
	for _, l := range executedLines {
		lineSet[l] = struct{}{}
	}

	var kept []types.Block
	for _, b := range blocks {
		for line := b.BodyStartLine; line <= b.EndLine; line++ {
			if _, ok := lineSet[line]; ok {
				kept = append(kept, b)
				break
			}
		}
	}
	return kept
}

func fingerprintFor(req Request, path string) (types.Fingerprint, error) {
	if req.Cache != nil {
		if fp, ok := req.Cache.GetFingerprint(path); ok {
			return fp, nil
		}
	}
	fp, err := fingerprint.Build(path)
	if err != nil {
		return types.Fingerprint{}, err
	}
	if req.Cache != nil {
		req.Cache.PutFingerprint(path, fp)
	}
	return fp, nil
}

// ProcessCoverageData admits, fingerprints, and filters every file in
// req.Coverage in parallel, returning one reduced Fingerprint per
// admitted file with Blocks cleared and Checksums limited to the blocks
// that executed. A file with zero surviving blocks is omitted from the
// result rather than recorded as an empty entry. Per-file read/parse
// errors are logged and the file is skipped — one unreadable file must
// not abort the whole coverage pass.
func ProcessCoverageData(req Request) map[string]types.Fingerprint {
	type result struct {
		path string
		fp   types.Fingerprint
		ok   bool
	}

	paths := make([]string, 0, len(req.Coverage))
	for path := range req.Coverage {
		paths = append(paths, path)
	}

	results := make([]result, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			if !shouldProcessFile(req, p) {
				return
			}
			fp, err := fingerprintFor(req, p)
			if err != nil {
				log.Warn("coverage: skipping %s: %v", p, err)
				return
			}
			kept := filterExecutedBlocks(fp.Blocks, req.Coverage[p])
			if len(kept) == 0 {
				return
			}
			checksums := make([]int32, len(kept))
			for j, b := range kept {
				checksums[j] = b.Checksum
			}
			results[idx] = result{
				path: p,
				fp: types.Fingerprint{
					Filename:  p,
					Checksums: checksums,
					FileHash:  fp.FileHash,
					Mtime:     fp.Mtime,
				},
				ok: true,
			}
		}(i, path)
	}
	wg.Wait()

	out := make(map[string]types.Fingerprint, len(paths))
	for _, r := range results {
		if r.ok {
			out[r.path] = r.fp
		}
	}
	return out
}
