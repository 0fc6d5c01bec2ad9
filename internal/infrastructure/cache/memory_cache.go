// Package cache implements the multi-tier caching layer of the BioRemPP
// backend: a generic in-memory LRU/TTL cache, the DataFrame and Graph tiers
// built on top of it, and the manager orchestrating lookups, single-flight
// builds and cascading invalidation.
//
// The cache is a pure optimization layer. Correctness never depends on it:
// internal invariant violations panic instead of being swallowed.
package cache

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "biorempp-backend/internal/errors"
)

// MemoryCache provides a bounded in-memory cache with LRU eviction and TTL
// support. It is thread-safe; a single mutex guards all state, so independent
// cache instances never serialize against each other.
type MemoryCache struct {
	mu       sync.Mutex
	items    map[string]*cacheItem
	lruList  *list.List // front = most recently used
	capacity int
	ttl      time.Duration
	clock    Clock

	// Statistics, monotonic for the cache's lifetime
	hits      int64
	misses    int64
	evictions int64

	logger *zap.Logger
}

// cacheItem represents a single cached entry.
type cacheItem struct {
	key          string
	value        any
	createdAt    time.Time
	lastAccessed time.Time
	ttl          time.Duration
	lruElement   *list.Element
}

// Stats holds cache statistics.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Items     int     `json:"items"`
	HitRate   float64 `json:"hit_rate"`
}

// NewMemoryCache creates a cache with the given capacity and default TTL.
// Capacity must be positive; a non-positive capacity is a configuration error
// and fails fast.
func NewMemoryCache(capacity int, defaultTTL time.Duration, clock Clock, logger *zap.Logger) (*MemoryCache, error) {
	if capacity <= 0 {
		return nil, apperrors.Configuration("INVALID_CACHE_CAPACITY",
			"cache capacity must be a positive integer").Build()
	}
	if defaultTTL <= 0 {
		return nil, apperrors.Configuration("INVALID_CACHE_TTL",
			"cache default TTL must be positive").Build()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MemoryCache{
		items:    make(map[string]*cacheItem),
		lruList:  list.New(),
		capacity: capacity,
		ttl:      defaultTTL,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Get retrieves a value. A hit marks the entry most-recently-used. An expired
// entry is lazily removed and reported as a miss.
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.expired(item, c.clock.Now()) {
		c.removeItem(item)
		c.misses++
		return nil, false
	}

	item.lastAccessed = c.clock.Now()
	c.lruList.MoveToFront(item.lruElement)
	c.hits++

	return item.value, true
}

// Put inserts or overwrites an entry. A zero ttl selects the cache default.
// When the cache is full and the key is new, expired entries are reclaimed
// first; if none are expired, the least-recently-used entry is evicted. The
// list keeps insertion order among never-accessed entries, so ties on
// last-access time break FIFO.
func (c *MemoryCache) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if existing, exists := c.items[key]; exists {
		c.removeItem(existing)
	}

	for len(c.items) >= c.capacity {
		c.evictOne(now)
	}

	item := &cacheItem{
		key:          key,
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
	}
	item.lruElement = c.lruList.PushFront(item)
	c.items[key] = item

	if len(c.items) > c.capacity {
		// The capacity invariant is load-bearing for memory bounds; a breach
		// is a programming error, not a recoverable condition.
		panic("cache: capacity invariant violated")
	}
}

// Invalidate removes an entry if present and reports whether anything was
// removed.
func (c *MemoryCache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return false
	}
	c.removeItem(item)
	return true
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*cacheItem)
	c.lruList.Init()
}

// Size returns the number of physically present entries.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetStats returns a snapshot of the cache counters.
func (c *MemoryCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Items:     len(c.items),
		HitRate:   hitRate,
	}
}

// evictOne frees exactly one slot. Expired entries are reclaimed oldest
// first before any live entry is evicted; among live entries the back of the
// list is the least recently used. Must be called with the lock held and a
// non-empty cache.
func (c *MemoryCache) evictOne(now time.Time) {
	// Oldest entries live at the back
	for e := c.lruList.Back(); e != nil; e = e.Prev() {
		item := e.Value.(*cacheItem)
		if c.expired(item, now) {
			c.removeItem(item)
			return
		}
	}

	oldest := c.lruList.Back()
	if oldest == nil {
		panic("cache: eviction requested on empty cache")
	}
	c.removeItem(oldest.Value.(*cacheItem))
	c.evictions++
}

// expired reports whether the entry's TTL horizon has passed.
func (c *MemoryCache) expired(item *cacheItem, now time.Time) bool {
	return now.Sub(item.createdAt) >= item.ttl
}

// removeItem removes an item from the cache. Must be called with the lock
// held.
func (c *MemoryCache) removeItem(item *cacheItem) {
	if item.lruElement != nil {
		c.lruList.Remove(item.lruElement)
		item.lruElement = nil
	}
	delete(c.items, item.key)
}
