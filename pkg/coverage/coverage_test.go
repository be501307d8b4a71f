package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessCoverageData_OnlyExecutedBlocksSurvive(t *testing.T) {
	root := t.TempDir()
	src := "def used():\n    return 1\n\n\ndef unused():\n    return 2\n"
	path := writeProjectFile(t, root, "pkg/mod.py", src)

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		Coverage: map[string][]int{
			path: {2}, // only the body of `used` executed
		},
	}

	out := ProcessCoverageData(req)
	require.Contains(t, out, path)
	// The module block's range spans the whole file, so it survives
	// alongside `used`; `unused`'s block does not.
	assert.Len(t, out[path].Checksums, 2)
	assert.Nil(t, out[path].Blocks, "the reduced fingerprint must not carry Blocks")
}

func TestProcessCoverageData_FileWithNoExecutionIsOmitted(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "mod.py", "def f():\n    return 1\n")

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		Coverage:    map[string][]int{path: {}},
	}

	out := ProcessCoverageData(req)
	assert.NotContains(t, out, path)
}

func TestProcessCoverageData_SkipsFilesOutsideScope(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	path := writeProjectFile(t, outside, "mod.py", "def f():\n    return 1\n")

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		Coverage:    map[string][]int{path: {1}},
	}

	out := ProcessCoverageData(req)
	assert.Empty(t, out)
}

func TestProcessCoverageData_TestFileIsAlwaysAdmitted(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "tests/test_mod.py", "def test_it():\n    assert True\n")

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		TestFile:    path,
		Coverage:    map[string][]int{path: {2}},
	}

	out := ProcessCoverageData(req)
	assert.Contains(t, out, path)
}

func TestProcessCoverageData_NonCurrentTestFileIsSkipped(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "tests/test_other.py", "def test_other():\n    assert True\n")

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		TestFile:    filepath.Join(root, "tests", "test_mod.py"),
		Coverage:    map[string][]int{path: {2}},
	}

	out := ProcessCoverageData(req)
	assert.NotContains(t, out, path)
}

func TestFilterExecutedBlocks_UsesBodyStartLineNotStartLine(t *testing.T) {
	root := t.TempDir()
	// The decorator line (1) runs at import time; the body (line 3) does not
	// execute unless the function is called.
	src := "@register\ndef handler():\n    return 1\n"
	path := writeProjectFile(t, root, "mod.py", src)

	req := Request{
		ProjectRoot: root,
		ScopePaths:  []string{root},
		Coverage: map[string][]int{
			path: {1}, // only the decorator line executed
		},
	}

	out := ProcessCoverageData(req)
	require.Contains(t, out, path, "the module block's range still covers the decorator line")
	assert.Len(t, out[path].Checksums, 1, "a decorated-but-never-called function must not count as executed")
}
