package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"biorempp-backend/internal/charts"
)

// GraphCache is the L2 tier: rendered chart definitions keyed by
// (use-case id, data hash, filters hash). Like the dataframe tier it
// delegates all eviction and TTL behavior to its MemoryCache; chart state is
// keyed by user filters and churns faster, so it carries the shorter default
// TTL.
type GraphCache struct {
	inner *MemoryCache

	ttlMu sync.RWMutex
	ttl   time.Duration
}

// NewGraphCache creates the graph tier with its own MemoryCache and lock.
func NewGraphCache(capacity int, ttl time.Duration, clock Clock, logger *zap.Logger) (*GraphCache, error) {
	inner, err := NewMemoryCache(capacity, ttl, clock, logger)
	if err != nil {
		return nil, err
	}
	return &GraphCache{inner: inner, ttl: ttl}, nil
}

// Key derives the cache key for a chart.
func (c *GraphCache) Key(useCaseID, dataHash, filtersHash string) string {
	return GraphKey(useCaseID, dataHash, filtersHash)
}

// GetGraph returns the cached chart definition, if live.
func (c *GraphCache) GetGraph(useCaseID, dataHash, filtersHash string) (*charts.Definition, bool) {
	value, ok := c.inner.Get(c.Key(useCaseID, dataHash, filtersHash))
	if !ok {
		return nil, false
	}
	return value.(*charts.Definition), true
}

// PutGraph stores a chart definition and returns the key it was stored
// under. Cached definitions are immutable; callers must treat them as
// read-only.
func (c *GraphCache) PutGraph(useCaseID, dataHash, filtersHash string, figure *charts.Definition) string {
	key := c.Key(useCaseID, dataHash, filtersHash)
	c.ttlMu.RLock()
	ttl := c.ttl
	c.ttlMu.RUnlock()
	c.inner.Put(key, figure, ttl)
	return key
}

// Invalidate removes one entry by key.
func (c *GraphCache) Invalidate(key string) bool {
	return c.inner.Invalidate(key)
}

// Clear removes all entries.
func (c *GraphCache) Clear() {
	c.inner.Clear()
}

// Size returns the number of entries.
func (c *GraphCache) Size() int {
	return c.inner.Size()
}

// GetStats returns the tier's counters.
func (c *GraphCache) GetStats() Stats {
	return c.inner.GetStats()
}

// SetTTL updates the default TTL for subsequent puts (hot-reload support).
func (c *GraphCache) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttlMu.Lock()
		c.ttl = ttl
		c.ttlMu.Unlock()
	}
}
