package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}

func writeProjectFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func configArgs(t *testing.T, root string) []string {
	t.Helper()
	cfgPath := filepath.Join(root, "testdiff.yaml")
	content := "database_path: " + filepath.Join(root, ".testdiff", "testdiff.db") + "\n" +
		"project_root: " + root + "\n" +
		"scope_paths:\n  - " + root + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return []string{"-config", cfgPath}
}

func TestRun_NoArgsShowsUsage(t *testing.T) {
	assert.Equal(t, 2, run(nil))
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Equal(t, 2, run([]string{"bogus"}))
}

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, run([]string{"help"}))
}

func TestRun_BaselineThenDetect(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "pkg/mod.py", "def add(a, b):\n    return a + b\n")
	args := configArgs(t, root)

	assert.Equal(t, 0, run(append(args, "baseline")))

	var out string
	out = captureStdout(t, func() {
		assert.Equal(t, 0, run(append(args, "detect")))
	})
	assert.Contains(t, out, "Modified")
}

func TestRun_CoverageRequiresThreeArgs(t *testing.T) {
	root := t.TempDir()
	args := configArgs(t, root)
	assert.Equal(t, 2, run(append(args, "coverage", "only-one-arg")))
}

func TestRun_CoverageProcessesLiteralJSON(t *testing.T) {
	root := t.TempDir()
	path := writeProjectFile(t, root, "pkg/mod.py", "def add(a, b):\n    return a + b\n")
	testFile := writeProjectFile(t, root, "tests/test_mod.py", "def test_add():\n    pass\n")
	args := configArgs(t, root)

	assert.Equal(t, 0, run(append(args, "baseline")))

	coverageJSON := `{"` + path + `": [2]}`
	out := captureStdout(t, func() {
		assert.Equal(t, 0, run(append(args, "coverage", "tests/test_mod.py::test_add", testFile, coverageJSON)))
	})
	assert.Contains(t, out, path)
}

func TestRun_CoverageRejectsInvalidJSON(t *testing.T) {
	root := t.TempDir()
	testFile := writeProjectFile(t, root, "tests/test_mod.py", "def test_add():\n    pass\n")
	args := configArgs(t, root)

	assert.Equal(t, 0, run(append(args, "baseline")))
	assert.Equal(t, 2, run(append(args, "coverage", "t", testFile, "not-json")))
}
