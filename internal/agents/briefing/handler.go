// Package briefing composes the periodic summary: it fans out the stream
// and trending fetches concurrently, then synthesizes prose from whatever
// arrived. A partial fetch degrades the briefing instead of failing it.
package briefing

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"streamscout/internal/agents"
	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/datasource"
	"streamscout/internal/dispatch"
)

const HandlerID = "briefing"

type Handler struct {
	data  *datasource.Manager
	pool  *dispatch.Pool
	synth Synthesizer
	cfg   Config
	log   logger.Logger

	now func() time.Time
}

// NewHandler wires the briefing pipeline. synth may be nil; the local
// template then renders every briefing.
func NewHandler(data *datasource.Manager, pool *dispatch.Pool, synth Synthesizer, cfg Config, log logger.Logger) *Handler {
	return &Handler{
		data:  data,
		pool:  pool,
		synth: synth,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (h *Handler) ID() string {
	return HandlerID
}

func (h *Handler) Handle(ctx context.Context, query agents.Query) (*agents.Reply, error) {
	var mu sync.Mutex
	material := BriefingData{GeneratedAt: h.now()}

	specs := map[string]dispatch.TaskSpec{
		"fetch-streams": {
			Run: func(ctx context.Context) (interface{}, error) {
				streams, err := h.fetchStreams(ctx)
				if err != nil {
					mu.Lock()
					material.Degraded = true
					mu.Unlock()
					return nil, err
				}
				mu.Lock()
				material.TopStreams = streams
				mu.Unlock()
				return len(streams), nil
			},
		},
		"fetch-trending": {
			Run: func(ctx context.Context) (interface{}, error) {
				games, err := h.fetchTrending(ctx)
				if err != nil {
					mu.Lock()
					material.Degraded = true
					mu.Unlock()
					return nil, err
				}
				mu.Lock()
				material.Trending = games
				mu.Unlock()
				return len(games), nil
			},
		},
		"compose": {
			DependsOn: []string{"fetch-streams", "fetch-trending"},
			Run: func(ctx context.Context) (interface{}, error) {
				mu.Lock()
				snapshot := material
				mu.Unlock()
				return h.compose(ctx, snapshot), nil
			},
		},
	}

	outcomes, err := h.pool.RunWithDependencies(ctx, specs, h.cfg.ComposeBudget)
	if err != nil {
		return nil, err
	}

	// Both fetches down means there is nothing to summarize.
	if outcomes["fetch-streams"].Err != nil && outcomes["fetch-trending"].Err != nil {
		return nil, commonErrors.NewDataSourceError("no briefing material available")
	}

	mu.Lock()
	snapshot := material
	mu.Unlock()

	compose := outcomes["compose"]
	text, _ := compose.Value.(string)
	if text == "" {
		// Compose abandoned at the deadline; the template is cheap enough
		// to render inline.
		text = renderTemplate(snapshot)
	}

	return &agents.Reply{Text: text, Data: snapshot}, nil
}

func (h *Handler) fetchStreams(ctx context.Context) ([]datasource.StreamData, error) {
	result := h.data.Fetch(ctx, datasource.NewStreamStatusQuery("", h.cfg.FetchTimeout, h.cfg.StreamTTL))
	if !result.Success {
		return nil, result.Err
	}

	var streams []datasource.StreamData
	if err := json.Unmarshal(result.Payload, &streams); err != nil {
		return nil, err
	}

	live := streams[:0]
	for _, s := range streams {
		if s.IsLive {
			live = append(live, s)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].ViewerCount > live[j].ViewerCount
	})
	if h.cfg.TopStreams > 0 && len(live) > h.cfg.TopStreams {
		live = live[:h.cfg.TopStreams]
	}
	return live, nil
}

func (h *Handler) fetchTrending(ctx context.Context) ([]datasource.TrendingGame, error) {
	result := h.data.Fetch(ctx, datasource.NewTrendingQuery("", h.cfg.FetchTimeout, h.cfg.TrendingTTL))
	if !result.Success {
		return nil, result.Err
	}

	var games []datasource.TrendingGame
	if err := json.Unmarshal(result.Payload, &games); err != nil {
		return nil, err
	}
	if h.cfg.TopGames > 0 && len(games) > h.cfg.TopGames {
		games = games[:h.cfg.TopGames]
	}
	return games, nil
}

// compose prefers the synthesis service and falls back to the template on
// any failure. It never errors: a briefing with material always renders.
func (h *Handler) compose(ctx context.Context, data BriefingData) string {
	if h.synth == nil {
		return renderTemplate(data)
	}

	text, err := h.synth.Synthesize(ctx, data)
	if err != nil {
		h.log.Warn("synthesis failed, rendering template briefing", map[string]interface{}{
			"error": err.Error(),
		})
		return renderTemplate(data)
	}
	return text
}
