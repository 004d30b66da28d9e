// Package livestatus answers "is X streaming" and "who is live" queries.
package livestatus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"streamscout/internal/agents"
	"streamscout/internal/datasource"
	"streamscout/internal/intent"
)

const HandlerID = "live-status"

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

func (h *Handler) Handle(ctx context.Context, query agents.Query) (*agents.Reply, error) {
	streamer := query.Entity(intent.EntityStreamer)

	result := h.data.Fetch(ctx, datasource.NewStreamStatusQuery(
		streamer, h.cfg.FetchTimeout, h.cfg.CacheTTL))
	if !result.Success {
		return nil, result.Err
	}

	var streams []datasource.StreamData
	if err := json.Unmarshal(result.Payload, &streams); err != nil {
		return nil, fmt.Errorf("decode stream payload from %s: %w", result.SourceID, err)
	}

	reply := &agents.Reply{
		Data: StatusPayload{
			Streams:   streams,
			SourceID:  result.SourceID,
			FromCache: result.FromCache,
		},
	}

	if streamer != "" {
		reply.Text = describeStreamer(streamer, streams)
		return reply, nil
	}

	reply.Text = describeTopStreams(streams, h.cfg.TopStreams)
	return reply, nil
}

func describeStreamer(streamer string, streams []datasource.StreamData) string {
	for _, s := range streams {
		if !strings.EqualFold(s.StreamerName, streamer) {
			continue
		}
		if !s.IsLive {
			return fmt.Sprintf("%s 当前未开播", s.StreamerName)
		}
		return fmt.Sprintf("%s 正在 %s 直播 %s，%d 人在看：%s",
			s.StreamerName, s.Platform, s.GameName, s.ViewerCount, s.Title)
	}
	return fmt.Sprintf("没有找到 %s 的直播信息", streamer)
}

func describeTopStreams(streams []datasource.StreamData, limit int) string {
	var live []datasource.StreamData
	for _, s := range streams {
		if s.IsLive {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return "当前没有主播在直播"
	}
	if limit > 0 && len(live) > limit {
		live = live[:limit]
	}

	var b strings.Builder
	b.WriteString("当前热门直播：")
	for i, s := range live {
		if i > 0 {
			b.WriteString("；")
		}
		fmt.Fprintf(&b, "%d. %s（%s，%d 人观看）", i+1, s.StreamerName, s.GameName, s.ViewerCount)
	}
	return b.String()
}
