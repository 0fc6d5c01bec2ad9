package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, capacity int, ttl time.Duration, clock Clock) *MemoryCache {
	t.Helper()
	c, err := NewMemoryCache(capacity, ttl, clock, nil)
	require.NoError(t, err)
	return c
}

func TestNewMemoryCache_RejectsInvalidConfig(t *testing.T) {
	_, err := NewMemoryCache(0, time.Minute, nil, nil)
	require.Error(t, err)

	_, err = NewMemoryCache(-1, time.Minute, nil, nil)
	require.Error(t, err)

	_, err = NewMemoryCache(10, 0, nil, nil)
	require.Error(t, err)
}

func TestMemoryCache_PutGet(t *testing.T) {
	c := newTestCache(t, 10, time.Minute, nil)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("a", 42, 0)
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestMemoryCache_OverwriteKeepsSingleEntry(t *testing.T) {
	c := newTestCache(t, 10, time.Minute, nil)

	c.Put("a", 1, 0)
	c.Put("a", 2, 0)

	assert.Equal(t, 1, c.Size())
	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestMemoryCache_NeverExceedsCapacity(t *testing.T) {
	c := newTestCache(t, 3, time.Minute, nil)

	for i := 0; i < 20; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i, 0)
		assert.LessOrEqual(t, c.Size(), 3)
	}
	assert.Equal(t, 3, c.Size())
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, 10, time.Minute, clock)

	c.Put("a", 1, 0)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry should be live before the TTL horizon")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry should expire after the TTL horizon")
	assert.Equal(t, 0, c.Size(), "expired entry should be removed on access")
}

func TestMemoryCache_PerEntryTTLOverridesDefault(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, 10, time.Hour, clock)

	c.Put("short", 1, time.Second)
	c.Put("long", 2, 0)

	clock.Advance(2 * time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("long")
	assert.True(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestCache(t, 2, time.Minute, nil)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)

	// Touch a so b becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3, 0)

	_, ok = c.Get("a")
	assert.True(t, ok, "recently used entry must survive")
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry must be evicted")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestMemoryCache_EvictionTieBreaksFIFO(t *testing.T) {
	c := newTestCache(t, 2, time.Minute, nil)

	// Neither entry is ever read, so last-access times tie on insertion
	// order and the earliest insertion goes first.
	c.Put("first", 1, 0)
	c.Put("second", 2, 0)
	c.Put("third", 3, 0)

	_, ok := c.Get("first")
	assert.False(t, ok)
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)
}

func TestMemoryCache_ReclaimsExpiredBeforeEvictingLive(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, 2, time.Minute, clock)

	c.Put("expiring", 1, time.Second)
	c.Put("live", 2, time.Hour)

	// "live" is most recently used; with no expired entries the LRU victim
	// would be "expiring" anyway, so re-touch it to make "live" the LRU
	// candidate and prove expiry wins over recency.
	clock.Advance(500 * time.Millisecond)
	_, ok := c.Get("expiring")
	require.True(t, ok)

	clock.Advance(time.Second)
	c.Put("new", 3, time.Hour)

	_, ok = c.Get("live")
	assert.True(t, ok, "live entry must survive while an expired one exists")
	_, ok = c.Get("expiring")
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Zero(t, stats.Evictions, "reclaiming an expired entry is not an eviction")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	c := newTestCache(t, 10, time.Minute, nil)

	c.Put("a", 1, 0)
	assert.True(t, c.Invalidate("a"))
	assert.False(t, c.Invalidate("a"), "second invalidation is a no-op")
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_Clear(t *testing.T) {
	c := newTestCache(t, 10, time.Minute, nil)

	c.Put("a", 1, 0)
	c.Put("b", 2, 0)
	c.Clear()

	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestMemoryCache_Stats(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, 2, time.Minute, clock)

	c.Put("a", 1, 0)
	c.Get("a")       // hit
	c.Get("missing") // miss
	c.Put("b", 2, 0)
	c.Put("c", 3, 0) // evicts the LRU entry

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Items)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestMemoryCache_ExpiredGetCountsAsMiss(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, 10, time.Second, clock)

	c.Put("a", 1, 0)
	clock.Advance(2 * time.Second)
	_, ok := c.Get("a")
	require.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
