// Package trending answers game popularity queries.
package trending

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"streamscout/internal/agents"
	"streamscout/internal/datasource"
)

const HandlerID = "trending"

// Config controls the trending fetch. Rankings move slowly, so the cache
// TTL is generous.
type Config struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	Limit        int
}

func DefaultConfig() Config {
	return Config{
		FetchTimeout: 2500 * time.Millisecond,
		CacheTTL:     300 * time.Second,
		Limit:        5,
	}
}

// TrendPayload is the structured reply data.
type TrendPayload struct {
	Games     []datasource.TrendingGame `json:"games"`
	SourceID  string                    `json:"source_id"`
	FromCache bool                      `json:"from_cache"`
}

type Handler struct {
	data *datasource.Manager
	cfg  Config
}

func NewHandler(data *datasource.Manager, cfg Config) *Handler {
	return &Handler{data: data, cfg: cfg}
}

func (h *Handler) ID() string {
	return HandlerID
}

func (h *Handler) Handle(ctx context.Context, _ agents.Query) (*agents.Reply, error) {
	result := h.data.Fetch(ctx, datasource.NewTrendingQuery(
		strconv.Itoa(h.cfg.Limit), h.cfg.FetchTimeout, h.cfg.CacheTTL))
	if !result.Success {
		return nil, result.Err
	}

	var games []datasource.TrendingGame
	if err := json.Unmarshal(result.Payload, &games); err != nil {
		return nil, fmt.Errorf("decode trending payload from %s: %w", result.SourceID, err)
	}

	return &agents.Reply{
		Text: describeTrending(games),
		Data: TrendPayload{
			Games:     games,
			SourceID:  result.SourceID,
			FromCache: result.FromCache,
		},
	}, nil
}

func describeTrending(games []datasource.TrendingGame) string {
	if len(games) == 0 {
		return "暂时没有热门游戏数据"
	}

	var b strings.Builder
	b.WriteString("当前热门游戏：")
	for i, g := range games {
		if i > 0 {
			b.WriteString("；")
		}
		fmt.Fprintf(&b, "%d. %s（%d 人观看）", g.Rank, g.GameName, g.ViewerCount)
	}
	return b.String()
}
