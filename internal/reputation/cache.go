package reputation

import (
	"sync"
	"time"
)

// cacheTTL bounds how long a fresh lookup is served from process memory.
const cacheTTL = 24 * time.Hour

type cacheKey struct {
	address    string
	maxAgeDays int
}

type cacheEntry struct {
	result     Result
	insertedAt time.Time
}

// resultCache is a process-local, time-bounded memo of recent lookup
// results keyed by (address, max-age window). Entries are replaced
// wholesale, never updated in place.
type resultCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	now     func() time.Time
}

func newResultCache(now func() time.Time) *resultCache {
	return &resultCache{
		entries: make(map[cacheKey]cacheEntry),
		now:     now,
	}
}

// get returns the cached result for (address, maxAgeDays) if it is younger
// than the cache TTL. Expired entries are treated as misses.
func (c *resultCache) get(address string, maxAgeDays int) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey{address, maxAgeDays}]
	if !ok {
		return Result{}, false
	}
	if c.now().Sub(entry.insertedAt) >= cacheTTL {
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(address string, maxAgeDays int, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{address, maxAgeDays}] = cacheEntry{result: r, insertedAt: c.now()}
}

// sweep removes entries older than the cache TTL and returns how many were
// dropped. Expired entries are already invisible to get; sweeping only
// reclaims memory.
func (c *resultCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.insertedAt) >= cacheTTL {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
