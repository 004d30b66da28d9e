// Package health reports the system's own condition: handler recovery
// state, per-source health and cache statistics.
package health

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"streamscout/internal/agents"
	"streamscout/internal/cache"
	"streamscout/internal/datasource"
	"streamscout/internal/recovery"
)

const HandlerID = "health"

// Report is the structured system-status payload.
type Report struct {
	Handlers map[string]recovery.AgentStatus    `json:"handlers"`
	Sources  map[string]datasource.SourceHealth `json:"sources"`
	Cache    cache.Stats                        `json:"cache"`
}

type Handler struct {
	recovery *recovery.Manager
	data     *datasource.Manager
}

func NewHandler(rec *recovery.Manager, data *datasource.Manager) *Handler {
	return &Handler{recovery: rec, data: data}
}

func (h *Handler) ID() string {
	return HandlerID
}

func (h *Handler) Handle(_ context.Context, _ agents.Query) (*agents.Reply, error) {
	report := Report{
		Handlers: h.recovery.Snapshot(),
		Sources:  h.data.SourceStatus(),
		Cache:    h.data.CacheStats(),
	}

	return &agents.Reply{
		Text: describe(report),
		Data: report,
	}, nil
}

func describe(report Report) string {
	var degraded []string
	for id, status := range report.Handlers {
		if status.State != recovery.StateActive {
			degraded = append(degraded, id)
		}
	}
	var down []string
	for id, health := range report.Sources {
		if !health.Healthy {
			down = append(down, id)
		}
	}
	sort.Strings(degraded)
	sort.Strings(down)

	if len(degraded) == 0 && len(down) == 0 {
		return fmt.Sprintf("系统运行正常：%d 个处理器在线，%d 个数据源可用，缓存命中 %d 次",
			len(report.Handlers), len(report.Sources), report.Cache.Hits)
	}

	var b strings.Builder
	b.WriteString("系统部分降级。")
	if len(degraded) > 0 {
		fmt.Fprintf(&b, "恢复中的处理器：%s。", strings.Join(degraded, "、"))
	}
	if len(down) > 0 {
		fmt.Fprintf(&b, "不可用的数据源：%s。", strings.Join(down, "、"))
	}
	return b.String()
}
