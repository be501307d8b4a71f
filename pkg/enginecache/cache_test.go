package enginecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulM5406/pytest-diff/pkg/types"
)

func TestCache_FingerprintRoundTrip(t *testing.T) {
	c := New()
	fp := types.Fingerprint{Filename: "a.py", Checksums: []int32{1, 2, 3}}
	c.PutFingerprint("a.py", fp)

	got, ok := c.GetFingerprint("a.py")
	require.True(t, ok)
	assert.Equal(t, fp.Filename, got.Filename)
	assert.Equal(t, fp.Checksums, got.Checksums)
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.GetFingerprint("missing.py")
	assert.False(t, ok)
}

func TestCache_TestChecksumsRoundTrip(t *testing.T) {
	c := New()
	c.PutTestChecksums("test_foo", []int32{10, 20})

	got, ok := c.GetTestChecksums("test_foo")
	require.True(t, ok)
	assert.Equal(t, []int32{10, 20}, got)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := WithCapacity(2)
	require.NoError(t, err)

	c.PutFingerprint("a.py", types.Fingerprint{Filename: "a.py"})
	c.PutFingerprint("b.py", types.Fingerprint{Filename: "b.py"})
	_, _ = c.GetFingerprint("a.py") // touch a.py so b.py becomes the LRU entry
	c.PutFingerprint("c.py", types.Fingerprint{Filename: "c.py"})

	_, hasA := c.GetFingerprint("a.py")
	_, hasB := c.GetFingerprint("b.py")
	_, hasC := c.GetFingerprint("c.py")
	assert.True(t, hasA)
	assert.False(t, hasB, "b.py should have been evicted")
	assert.True(t, hasC)
}

func TestCache_ClearEmptiesBothMaps(t *testing.T) {
	c := New()
	c.PutFingerprint("a.py", types.Fingerprint{Filename: "a.py"})
	c.PutTestChecksums("test_foo", []int32{1})

	c.Clear()

	_, hasFP := c.GetFingerprint("a.py")
	_, hasTest := c.GetTestChecksums("test_foo")
	assert.False(t, hasFP)
	assert.False(t, hasTest)
}
