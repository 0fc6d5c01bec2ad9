package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"biorempp-backend/internal/domain/dataset"
	"biorempp-backend/internal/repository"
)

// DataFrameCache is the L1 tier: raw reference tables keyed by
// (database id, normalized query parameters). It owns no eviction or TTL
// logic of its own; everything is delegated to the underlying MemoryCache.
// Raw joined data churns less often than rendered chart state, so this tier
// carries the longer default TTL.
type DataFrameCache struct {
	inner *MemoryCache

	ttlMu sync.RWMutex
	ttl   time.Duration
}

// NewDataFrameCache creates the dataframe tier with its own MemoryCache and
// lock.
func NewDataFrameCache(capacity int, ttl time.Duration, clock Clock, logger *zap.Logger) (*DataFrameCache, error) {
	inner, err := NewMemoryCache(capacity, ttl, clock, logger)
	if err != nil {
		return nil, err
	}
	return &DataFrameCache{inner: inner, ttl: ttl}, nil
}

// Key derives the cache key for a query.
func (c *DataFrameCache) Key(databaseID string, params repository.QueryParams) string {
	return DataFrameKey(databaseID, params)
}

// GetDataFrame returns the cached table for a query, if live.
func (c *DataFrameCache) GetDataFrame(databaseID string, params repository.QueryParams) (*dataset.Table, bool) {
	value, ok := c.inner.Get(c.Key(databaseID, params))
	if !ok {
		return nil, false
	}
	return value.(*dataset.Table), true
}

// PutDataFrame stores a table and returns the key it was stored under.
// Cached tables are read-only snapshots; callers must not mutate them.
func (c *DataFrameCache) PutDataFrame(databaseID string, params repository.QueryParams, table *dataset.Table) string {
	key := c.Key(databaseID, params)
	c.ttlMu.RLock()
	ttl := c.ttl
	c.ttlMu.RUnlock()
	c.inner.Put(key, table, ttl)
	return key
}

// Invalidate removes one entry by key.
func (c *DataFrameCache) Invalidate(key string) bool {
	return c.inner.Invalidate(key)
}

// Clear removes all entries.
func (c *DataFrameCache) Clear() {
	c.inner.Clear()
}

// Size returns the number of entries.
func (c *DataFrameCache) Size() int {
	return c.inner.Size()
}

// GetStats returns the tier's counters.
func (c *DataFrameCache) GetStats() Stats {
	return c.inner.GetStats()
}

// SetTTL updates the default TTL for subsequent puts (hot-reload support).
func (c *DataFrameCache) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		c.ttlMu.Lock()
		c.ttl = ttl
		c.ttlMu.Unlock()
	}
}
