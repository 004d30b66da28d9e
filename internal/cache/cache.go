// Package cache provides the bounded, time-expiring store shared by the
// data access layer. Two implementations exist: an in-process LRU and a
// Redis-backed store for multi-process deployments.
package cache

import (
	"context"
	"time"
)

// Stats exposes monotonic hit/miss counters for the process lifetime plus
// the current entry count. Counters are never persisted.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Expired   uint64 `json:"expired"`
	Size      int    `json:"size"`
}

// Cache is the contract the data access coordinator depends on. Values are
// opaque bytes; callers handle serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Stats() Stats
}
