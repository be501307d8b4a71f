// Package engine is the orchestrator (spec component C9): it wires the
// block extractor, fingerprint builder, coverage filter, store, cache,
// and change detector together behind three entry points — SaveBaseline,
// DetectChanges, and ProcessCoverageData — the operations a host (a
// pytest plugin, a CLI, anything embedding the engine) actually calls.
//
// The fan-out/fan-in shape for SaveBaseline's fingerprinting follows the
// teacher's workflow step-group executor (pkg/mage/workflow.go): spawn
// one goroutine per item behind a bounded semaphore, collect results
// into a pre-sized slice by index, wg.Wait(), then continue serially.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/PaulM5406/pytest-diff/pkg/common/config"
	"github.com/PaulM5406/pytest-diff/pkg/coverage"
	"github.com/PaulM5406/pytest-diff/pkg/detect"
	"github.com/PaulM5406/pytest-diff/pkg/enginecache"
	"github.com/PaulM5406/pytest-diff/pkg/fingerprint"
	"github.com/PaulM5406/pytest-diff/pkg/log"
	"github.com/PaulM5406/pytest-diff/pkg/store"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

// defaultParallelism bounds the number of in-flight fingerprint
// goroutines when the config doesn't specify one.
const defaultParallelism = 8

// progressReportInterval is how often SaveBaseline reports percent
// complete while fingerprinting, and slowFileThreshold is how long a
// single file's fingerprint must take before it's called out as slow —
// both matching the original orchestrator's verbose progress output
// (spec §5, fingerprint.rs's save_baseline_internal).
const (
	progressReportInterval = 50
	slowFileThreshold      = 100 * time.Millisecond
)

// Engine holds the long-lived collaborators a host constructs once and
// reuses across SaveBaseline/DetectChanges/ProcessCoverageData calls.
type Engine struct {
	Config config.EngineConfig
	Store  *store.Store
	Cache  *enginecache.Cache
}

// New opens the store at cfg.DatabasePath and creates a cache sized per
// cfg.CacheCapacity. cfg.Verbose gates the package-level logger's output,
// matching spec §6's "a boolean flag toggles progress logging to
// standard error".
func New(cfg config.EngineConfig) (*Engine, error) {
	log.SetVerbose(cfg.Verbose)

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = enginecache.DefaultCapacity
	}
	cache, err := enginecache.WithCapacity(capacity)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	return &Engine{Config: cfg, Store: s, Cache: cache}, nil
}

// Close releases the engine's store handle.
func (e *Engine) Close() error {
	return e.Store.Close()
}

func (e *Engine) parallelism() int {
	if e.Config.MaxParallelism > 0 {
		return e.Config.MaxParallelism
	}
	return defaultParallelism
}

// SaveBaseline fingerprints every Python file under the engine's scope
// in parallel, then writes every successfully fingerprinted file to the
// baseline table in a single transaction. A per-file fingerprint
// failure is logged and the file is excluded from the baseline rather
// than aborting the whole pass.
func (e *Engine) SaveBaseline() error {
	files, err := detect.FindPythonFiles(e.Config.ProjectRoot, e.Config.ScopePaths)
	if err != nil {
		return err
	}

	log.Info("saving baseline for %d files", len(files))

	fingerprints, skipped := e.fingerprintAllParallel(files)

	if err := e.Store.SaveBaselineFingerprintsBatch(fingerprints); err != nil {
		return err
	}

	log.Info("baseline saved: %d saved, %d skipped, %d total", len(fingerprints), skipped, len(files))
	return nil
}

// fingerprintAllParallel fingerprints every file concurrently, bounded
// by the engine's configured parallelism, and returns the successful
// results in no particular order plus a count of files skipped due to
// per-file errors. Failures are logged, not returned — SaveBaseline's
// contract is "best effort across the tree", matching the original
// orchestrator's verbose skip-and-continue behavior. Progress is
// reported every progressReportInterval completions, and any single
// file taking longer than slowFileThreshold is called out by name.
func (e *Engine) fingerprintAllParallel(files []string) (fingerprints []types.Fingerprint, skipped int) {
	sem := make(chan struct{}, e.parallelism())
	results := make([]types.Fingerprint, len(files))
	ok := make([]bool, len(files))
	var completed int64

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			fp, err := fingerprint.Build(path)
			elapsed := time.Since(start)
			if elapsed > slowFileThreshold {
				log.Warn("slow fingerprint: %s took %s", path, elapsed)
			}
			if err != nil {
				log.Warn("skipping %s: %v", path, err)
			} else {
				results[idx] = fp
				ok[idx] = true
			}

			done := atomic.AddInt64(&completed, 1)
			if done%progressReportInterval == 0 || int(done) == len(files) {
				log.Info("fingerprinting: %d/%d files (%d%%)",
					done, len(files), done*100/int64(len(files)))
			}
		}(i, f)
	}
	wg.Wait()

	out := make([]types.Fingerprint, 0, len(files))
	for i, success := range ok {
		if success {
			out = append(out, results[i])
		} else {
			skipped++
		}
	}
	return out, skipped
}

// DetectChanges runs the three-tier change-detection cascade against
// the stored baseline for every file under the engine's scope.
func (e *Engine) DetectChanges() (types.ChangedFiles, error) {
	changed, err := detect.DetectChanges(e.Store, e.Config.ProjectRoot, e.Config.ScopePaths)
	if err != nil {
		return changed, err
	}
	log.Info("detected %d modified files", len(changed.Modified))
	return changed, nil
}

// ProcessCoverageData admits, fingerprints, and filters per-test
// coverage data down to the blocks that actually executed, then
// persists the result as a TestExecution so future DetectChanges runs
// can identify this test as affected by a block's disappearance.
func (e *Engine) ProcessCoverageData(testName, testFile string, coverageData map[string][]int, duration float64, failed bool) (map[string]types.Fingerprint, error) {
	reduced := coverage.ProcessCoverageData(coverage.Request{
		ProjectRoot: e.Config.ProjectRoot,
		ScopePaths:  e.Config.ScopePaths,
		TestFile:    testFile,
		Coverage:    coverageData,
		Cache:       e.Cache,
	})

	fingerprints := make([]types.Fingerprint, 0, len(reduced))
	for _, fp := range reduced {
		fingerprints = append(fingerprints, fp)
	}

	exec := types.TestExecution{
		TestName:     testName,
		Duration:     duration,
		Failed:       failed,
		Fingerprints: fingerprints,
	}
	if err := e.Store.SaveTestExecution(exec); err != nil {
		return nil, err
	}

	log.Info("processed coverage for %s: %d files admitted", testName, len(reduced))
	return reduced, nil
}
