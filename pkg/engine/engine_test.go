package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulM5406/pytest-diff/pkg/common/config"
)

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	cfg := config.EngineConfig{
		DatabasePath:    filepath.Join(root, ".testdiff", "testdiff.db"),
		ProjectRoot:     root,
		ScopePaths:      []string{root},
		SourceExtension: ".py",
		CacheCapacity:   100,
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEngine_SaveBaselineThenDetectNoChanges(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "pkg/mod.py", "def add(a, b):\n    return a + b\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.SaveBaseline())

	changed, err := e.DetectChanges()
	require.NoError(t, err)
	assert.Empty(t, changed.Modified)
}

func TestEngine_DetectChangesAfterEdit(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "pkg/mod.py", "def add(a, b):\n    return a + b\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.SaveBaseline())

	time.Sleep(5 * time.Millisecond)
	writeSource(t, root, "pkg/mod.py", "def add(a, b):\n    return a - b\n")

	changed, err := e.DetectChanges()
	require.NoError(t, err)
	require.Contains(t, changed.Modified, path)
	assert.Len(t, changed.ChangedBlocks[path], 1)
}

func TestEngine_ProcessCoverageDataPersistsTestExecution(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "pkg/mod.py", "def add(a, b):\n    return a + b\n")
	testFile := writeSource(t, root, "tests/test_mod.py", "def test_add():\n    assert add(1, 2) == 3\n")

	e := newTestEngine(t, root)
	require.NoError(t, e.SaveBaseline())

	reduced, err := e.ProcessCoverageData(
		"tests/test_mod.py::test_add",
		testFile,
		map[string][]int{path: {2}},
		0.01,
		false,
	)
	require.NoError(t, err)
	require.Contains(t, reduced, path)

	// The next detect-changes pass should find this test affected once the
	// function's checksum disappears.
	time.Sleep(5 * time.Millisecond)
	writeSource(t, root, "pkg/mod.py", "def add(a, b):\n    return a - b\n")

	changed, err := e.DetectChanges()
	require.NoError(t, err)
	require.Contains(t, changed.ChangedBlocks, path)

	affected, err := e.Store.GetAffectedTests(path, changed.ChangedBlocks[path])
	require.NoError(t, err)
	assert.Contains(t, affected, "tests/test_mod.py::test_add")
}
