package datasource

import (
	"context"
	"sync"
	"time"

	"streamscout/internal/cache"
	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/common/metrics"
)

// SourceHealth is the externally visible health record for one backend.
type SourceHealth struct {
	Healthy  bool `json:"healthy"`
	Failures int  `json:"failures"`
}

// Manager is the data access coordinator: cache first, then the sources in
// priority order, never retrying a source and never continuing past the
// first success.
type Manager struct {
	sources     []Source
	store       cache.Cache
	stale       *CacheSource
	maxFailures int
	log         logger.Logger

	mu     sync.Mutex
	health map[string]*SourceHealth

	now func() time.Time
}

// NewManager takes sources in priority order. The shared cache answers
// repeat queries within their TTL; a CacheSource among the sources
// additionally serves stale payloads once everything ahead of it fails.
func NewManager(sources []Source, store cache.Cache, maxFailures int, log logger.Logger) *Manager {
	if maxFailures < 1 {
		maxFailures = 3
	}

	health := make(map[string]*SourceHealth, len(sources))
	var stale *CacheSource
	for _, s := range sources {
		health[s.ID()] = &SourceHealth{Healthy: true}
		if cs, ok := s.(*CacheSource); ok {
			stale = cs
		}
	}

	return &Manager{
		sources:     sources,
		store:       store,
		stale:       stale,
		maxFailures: maxFailures,
		health:      health,
		log:         log,
		now:         time.Now,
	}
}

// Fetch satisfies one DataQuery. The cache is consulted first; on a hit no
// source is touched. On a miss, sources are tried once each in priority
// order, skipping ones currently marked unhealthy.
func (m *Manager) Fetch(ctx context.Context, query DataQuery) DataResult {
	start := m.now()
	key := cache.QueryKey(query.QueryType, query.Parameters)

	if payload, ok := m.store.Get(ctx, key); ok {
		metrics.CacheHits.Inc()
		result := DataResult{
			Success:   true,
			Payload:   payload,
			SourceID:  SourceCache,
			FromCache: true,
			Elapsed:   time.Since(start),
		}
		m.logFetch(query, result)
		return result
	}
	metrics.CacheMisses.Inc()

	attempted := 0
	for _, source := range m.sources {
		if !m.isHealthy(source.ID()) {
			continue
		}
		attempted++

		payload, err := m.fetchOne(ctx, source, query)
		if err != nil {
			m.recordFailure(source.ID(), query.QueryType, err)
			continue
		}

		m.recordSuccess(source.ID())
		if query.CacheTTL > 0 {
			m.store.Set(ctx, key, payload, query.CacheTTL)
		}
		if m.stale != nil && source.ID() != SourceCache {
			m.stale.Store(ctx, query, payload)
		}

		result := DataResult{
			Success:  true,
			Payload:  payload,
			SourceID: source.ID(),
			Elapsed:  time.Since(start),
		}
		m.logFetch(query, result)
		return result
	}

	failure := commonErrors.NewAllSourcesFailedError(query.QueryType, attempted)
	result := DataResult{
		Success: false,
		Elapsed: time.Since(start),
		Err:     failure,
	}
	m.logFetch(query, result)
	return result
}

func (m *Manager) fetchOne(ctx context.Context, source Source, query DataQuery) ([]byte, error) {
	if query.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, query.Timeout)
		defer cancel()
	}

	fetchStart := m.now()
	payload, err := source.Fetch(ctx, query)
	elapsed := time.Since(fetchStart)

	metrics.FetchDuration.WithLabelValues(source.ID()).Observe(elapsed.Seconds())
	if err != nil {
		metrics.SourceFetches.WithLabelValues(source.ID(), "error").Inc()
		return nil, err
	}
	metrics.SourceFetches.WithLabelValues(source.ID(), "success").Inc()
	return payload, nil
}

func (m *Manager) isHealthy(sourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.health[sourceID]; ok {
		return h.Healthy
	}
	return false
}

// recordFailure bumps the failure count and marks the source unhealthy once
// it reaches maxFailures. An unhealthy source is skipped until a health
// check passes or an explicit reset.
func (m *Manager) recordFailure(sourceID, queryType string, err error) {
	m.mu.Lock()
	h := m.health[sourceID]
	h.Failures++
	if h.Failures >= m.maxFailures {
		h.Healthy = false
	}
	failures := h.Failures
	healthy := h.Healthy
	m.mu.Unlock()

	m.log.Warn("source fetch failed", map[string]interface{}{
		"source":     sourceID,
		"query_type": queryType,
		"failures":   failures,
		"healthy":    healthy,
		"error":      err.Error(),
	})
}

func (m *Manager) recordSuccess(sourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.health[sourceID]
	h.Failures = 0
	h.Healthy = true
}

// HealthCheckAll probes every source with its own short timeout and updates
// the health flags. An unhealthy source becomes eligible again as soon as a
// probe succeeds.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(m.sources))

	for _, source := range m.sources {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := source.HealthCheck(probeCtx)
		cancel()

		healthy := err == nil
		out[source.ID()] = healthy

		m.mu.Lock()
		h := m.health[source.ID()]
		h.Healthy = healthy
		if healthy {
			h.Failures = 0
		}
		m.mu.Unlock()

		if err != nil {
			m.log.Warn("source health check failed", map[string]interface{}{
				"source": source.ID(),
				"error":  err.Error(),
			})
		}
	}

	return out
}

// ResetSource clears a source's failure record and marks it healthy.
func (m *Manager) ResetSource(sourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.health[sourceID]; ok {
		h.Failures = 0
		h.Healthy = true
	}
}

// SourceStatus returns a copy of every source's health record.
func (m *Manager) SourceStatus() map[string]SourceHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]SourceHealth, len(m.health))
	for id, h := range m.health {
		out[id] = *h
	}
	return out
}

// CacheStats surfaces the shared cache's counters for health reporting.
func (m *Manager) CacheStats() cache.Stats {
	return m.store.Stats()
}

func (m *Manager) logFetch(query DataQuery, result DataResult) {
	fields := map[string]interface{}{
		"query_type": query.QueryType,
		"success":    result.Success,
		"from_cache": result.FromCache,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	}
	if result.SourceID != "" {
		fields["source"] = result.SourceID
	}
	if result.Err != nil {
		fields["category"] = string(result.Err.Category)
		m.log.Error("data fetch failed", fields)
		return
	}
	m.log.Info("data fetch", fields)
}
