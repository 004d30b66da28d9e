package cache

import (
	"context"
	"sync"
	"time"
)

type lruEntry struct {
	value          []byte
	createdAt      time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// LRU is a mutex-guarded, bounded cache. When full, Set evicts the entry
// with the oldest lastAccessedAt, not the oldest insertion. Expired entries
// are removed lazily on Get.
type LRU struct {
	mu         sync.Mutex
	entries    map[string]*lruEntry
	maxSize    int
	defaultTTL time.Duration
	stats      Stats

	now func() time.Time
}

const (
	DefaultMaxSize = 1000
	DefaultTTL     = 300 * time.Second
)

func NewLRU(maxSize int, defaultTTL time.Duration) *LRU {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &LRU{
		entries:    make(map[string]*lruEntry, maxSize),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return nil, false
	}

	entry.lastAccessedAt = now
	c.stats.Hits++
	return entry.value, true
}

func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &lruEntry{
		value:          value,
		createdAt:      now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
}

// evictOldest removes the least recently accessed entry. Linear scan; the
// cache is small enough that a heap is not worth the bookkeeping.
func (c *LRU) evictOldest() {
	var oldestKey string
	var oldestAt time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccessedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.lastAccessedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}
