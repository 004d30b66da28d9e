// Package agents defines the handler contract the router dispatches to and
// the registry that resolves handler ids at startup.
package agents

import (
	"context"
	"fmt"
	"sort"

	"streamscout/internal/intent"
)

// Query is the per-handler view of one request: the original text plus the
// classification outcome. Handlers never see transport details.
type Query struct {
	RequestID string
	SessionID string
	Text      string
	Intent    intent.Intent
	Entities  map[string]string
}

// Entity returns a named slot extracted by classification, or "".
func (q Query) Entity(key string) string {
	if q.Entities == nil {
		return ""
	}
	return q.Entities[key]
}

// Reply is a handler's structured output. Text is plain prose; Data carries
// the structured payload for the presentation layer to render.
type Reply struct {
	Text string      `json:"text"`
	Data interface{} `json:"data,omitempty"`
}

// Agent is one unit of request-specific logic selected by intent.
type Agent interface {
	ID() string
	Handle(ctx context.Context, query Query) (*Reply, error)
}

// Registry resolves handler ids to agents. It is built once at startup;
// lookups after that are read-only.
type Registry struct {
	agents map[string]Agent
}

func NewRegistry(list ...Agent) (*Registry, error) {
	agents := make(map[string]Agent, len(list))
	for _, a := range list {
		if _, dup := agents[a.ID()]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", a.ID())
		}
		agents[a.ID()] = a
	}
	return &Registry{agents: agents}, nil
}

func (r *Registry) Get(id string) (Agent, bool) {
	a, ok := r.agents[id]
	return a, ok
}

// IDs lists registered agent ids, sorted for stable logging.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
