// Package datasource implements the prioritized, failover-capable data
// layer: interchangeable backends behind one Source contract, coordinated
// with caching and per-source health tracking.
package datasource

import (
	"context"
	"encoding/json"
	"time"

	commonErrors "streamscout/internal/common/errors"
)

// Query types understood by every backend.
const (
	QueryStreamStatus = "stream_status"
	QueryTrending     = "trending"
)

// Well-known source ids.
const (
	SourceLiveAPI = "live_api"
	SourceMock    = "mock"
	SourceCache   = "cache"
)

// DataQuery describes one data need. Handlers construct it per request and
// pass it by value; the coordinator never mutates it.
type DataQuery struct {
	QueryType  string            `json:"query_type"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Timeout    time.Duration     `json:"-"`
	CacheTTL   time.Duration     `json:"-"`
}

// DataResult is the outcome of one DataQuery. SourceID records which backend
// satisfied it so failover is observable and testable.
type DataResult struct {
	Success   bool                     `json:"success"`
	Payload   json.RawMessage          `json:"payload,omitempty"`
	SourceID  string                   `json:"source_id,omitempty"`
	FromCache bool                     `json:"from_cache"`
	Elapsed   time.Duration            `json:"-"`
	Err       *commonErrors.AgentError `json:"error,omitempty"`
}

// Source is one interchangeable backend. Fetch returns the serialized
// payload or an error; it never panics across this boundary. HealthCheck
// returns nil when the backend is usable.
type Source interface {
	ID() string
	Fetch(ctx context.Context, query DataQuery) (json.RawMessage, error)
	HealthCheck(ctx context.Context) error
}
