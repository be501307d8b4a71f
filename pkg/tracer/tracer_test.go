package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsSortedLinesPerFile(t *testing.T) {
	c := NewCollector()
	c.StartTest("test_add")
	c.RecordLine("a.py", 5)
	c.RecordLine("a.py", 2)
	c.RecordLine("b.py", 9)
	c.RecordLine("a.py", 2) // duplicate

	coverage, err := c.Finish()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, coverage["a.py"])
	assert.Equal(t, []int{9}, coverage["b.py"])
}

func TestCollector_FinishWithoutStartErrors(t *testing.T) {
	c := NewCollector()
	_, err := c.Finish()
	assert.Error(t, err)
}

func TestCollector_RecordLineWithoutCurrentTestIsNoop(t *testing.T) {
	c := NewCollector()
	c.RecordLine("a.py", 1) // must not panic

	c.StartTest("test_x")
	coverage, err := c.Finish()
	require.NoError(t, err)
	assert.Empty(t, coverage)
}

func TestCollector_StartTestOverwritesCurrent(t *testing.T) {
	c := NewCollector()
	c.StartTest("test_a")
	c.RecordLine("a.py", 1)
	c.StartTest("test_b")
	c.RecordLine("b.py", 2)

	coverage, err := c.Finish()
	require.NoError(t, err)
	assert.Equal(t, []int{2}, coverage["b.py"])
	assert.NotContains(t, coverage, "a.py")
}

func TestCollector_ClearResetsState(t *testing.T) {
	c := NewCollector()
	c.StartTest("test_a")
	c.RecordLine("a.py", 1)
	c.Clear()

	_, err := c.Finish()
	assert.Error(t, err, "Clear must drop the current-test slot too")
}

func TestCollector_IndependentTestsDoNotShareCoverage(t *testing.T) {
	c := NewCollector()
	c.StartTest("test_a")
	c.RecordLine("shared.py", 1)
	covA, err := c.Finish()
	require.NoError(t, err)

	c.StartTest("test_b")
	c.RecordLine("shared.py", 2)
	covB, err := c.Finish()
	require.NoError(t, err)

	assert.Equal(t, []int{1}, covA["shared.py"])
	assert.Equal(t, []int{2}, covB["shared.py"])
}
