package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"streamscout/internal/cache"
)

// staleTTL keeps last-known-good payloads around long after their fresh TTL
// so the cache backend can answer when everything upstream is down.
const staleTTL = 24 * time.Hour

const stalePrefix = "stale:"

// CacheSource is the last-resort backend. It serves the most recent payload
// any real source produced for the same query, however old, under a
// separate key namespace from the coordinator's fresh cache.
type CacheSource struct {
	store cache.Cache
}

func NewCacheSource(store cache.Cache) *CacheSource {
	return &CacheSource{store: store}
}

func (s *CacheSource) ID() string {
	return SourceCache
}

func (s *CacheSource) Fetch(ctx context.Context, query DataQuery) (json.RawMessage, error) {
	key := stalePrefix + cache.QueryKey(query.QueryType, query.Parameters)
	payload, ok := s.store.Get(ctx, key)
	if !ok {
		return nil, fmt.Errorf("cache source: no stored payload for query type %q", query.QueryType)
	}
	return payload, nil
}

// Store records a successful fetch so later failovers have something to
// serve. Called by the coordinator, never by handlers.
func (s *CacheSource) Store(ctx context.Context, query DataQuery, payload json.RawMessage) {
	key := stalePrefix + cache.QueryKey(query.QueryType, query.Parameters)
	s.store.Set(ctx, key, payload, staleTTL)
}

func (s *CacheSource) HealthCheck(_ context.Context) error {
	return nil
}
