// Package tracer implements the line-tracer side of the host integration
// contract: a Collector the host's test runner calls into on every
// traced line, accumulating per-test, per-file executed-line sets for
// pkg/coverage to filter against.
package tracer

import (
	"sort"
	"sync"

	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
)

// Collector tracks executed lines for whichever single test is
// currently running. Only one test may be "current" at a time — this
// mirrors a real tracer hook, which fires from a single interpreter
// thread per test.
type Collector struct {
	mu          sync.Mutex
	currentTest string
	hasCurrent  bool
	coverage    map[string]map[string]map[int]struct{} // test -> file -> lines
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		coverage: make(map[string]map[string]map[int]struct{}),
	}
}

// StartTest marks name as the current test, overwriting any previous
// current test without finishing it (matching the original tracer's
// behavior: a runner that forgets to call Finish simply loses that
// test's coverage, rather than blocking the next one from starting).
func (c *Collector) StartTest(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTest = name
	c.hasCurrent = true
	if _, ok := c.coverage[name]; !ok {
		c.coverage[name] = make(map[string]map[int]struct{})
	}
}

// RecordLine records that lineNo in filename executed during the
// current test. It is a no-op if no test is currently running, so a
// tracer hook firing outside of a tracked test (e.g. during collection)
// never panics or errors.
func (c *Collector) RecordLine(filename string, lineNo int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent {
		return
	}
	files := c.coverage[c.currentTest]
	lines, ok := files[filename]
	if !ok {
		lines = make(map[int]struct{})
		files[filename] = lines
	}
	lines[lineNo] = struct{}{}
}

// Finish pops the current test's coverage, returning a sorted line list
// per file, and clears the current-test slot. It errors if no test is
// currently running.
func (c *Collector) Finish() (map[string][]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasCurrent {
		return nil, engerrors.Invariant("no test currently running")
	}

	files := c.coverage[c.currentTest]
	delete(c.coverage, c.currentTest)
	c.currentTest = ""
	c.hasCurrent = false

	out := make(map[string][]int, len(files))
	for filename, lines := range files {
		sorted := make([]int, 0, len(lines))
		for l := range lines {
			sorted = append(sorted, l)
		}
		sort.Ints(sorted)
		out[filename] = sorted
	}
	return out, nil
}

// Clear discards all accumulated coverage and the current-test slot.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coverage = make(map[string]map[string]map[int]struct{})
	c.currentTest = ""
	c.hasCurrent = false
}
