// Package enginecache is the engine's in-memory LRU cache (spec component
// C7): two independently bounded maps — fingerprints by file path, and
// test-to-checksum mappings by test name — shared across a process so
// repeated lookups for the same file or test avoid a re-parse or a store
// round trip.
package enginecache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/PaulM5406/pytest-diff/pkg/types"
)

// DefaultCapacity is the default entry count for each of the cache's two
// maps, matching the 10,000-entry default of the component it was
// ported from.
const DefaultCapacity = 10_000

// Cache holds two independently bounded, independently locked LRU maps.
// A miss on either is not an error: callers fall back to rebuilding the
// entry from the store or the filesystem.
type Cache struct {
	mu           sync.RWMutex
	fingerprints *lru.Cache[string, types.Fingerprint]

	testMu   sync.RWMutex
	testMaps *lru.Cache[string, []int32]
}

// New creates a Cache with DefaultCapacity entries in each map.
func New() *Cache {
	c, err := WithCapacity(DefaultCapacity)
	if err != nil {
		// DefaultCapacity is always > 0, so lru.New can't fail here.
		panic(err)
	}
	return c
}

// WithCapacity creates a Cache whose two maps each hold up to capacity
// entries. capacity must be positive.
func WithCapacity(capacity int) (*Cache, error) {
	fingerprints, err := lru.New[string, types.Fingerprint](capacity)
	if err != nil {
		return nil, err
	}
	testMaps, err := lru.New[string, []int32](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{fingerprints: fingerprints, testMaps: testMaps}, nil
}

// GetFingerprint returns the cached fingerprint for path, if present.
func (c *Cache) GetFingerprint(path string) (types.Fingerprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprints.Get(path)
}

// PutFingerprint inserts or updates path's cached fingerprint, evicting
// the least recently used entry if the cache is at capacity.
func (c *Cache) PutFingerprint(path string, fp types.Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprints.Add(path, fp.Clone())
}

// GetTestChecksums returns the cached checksum list for testName, if
// present.
func (c *Cache) GetTestChecksums(testName string) ([]int32, bool) {
	c.testMu.RLock()
	defer c.testMu.RUnlock()
	return c.testMaps.Get(testName)
}

// PutTestChecksums inserts or updates testName's cached checksum list.
func (c *Cache) PutTestChecksums(testName string, checksums []int32) {
	c.testMu.Lock()
	defer c.testMu.Unlock()
	c.testMaps.Add(testName, append([]int32(nil), checksums...))
}

// Clear empties both maps.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.fingerprints.Purge()
	c.mu.Unlock()

	c.testMu.Lock()
	c.testMaps.Purge()
	c.testMu.Unlock()
}
