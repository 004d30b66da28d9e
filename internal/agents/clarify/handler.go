// Package clarify answers requests whose intent could not be determined.
// It never touches external data.
package clarify

import (
	"context"

	"streamscout/internal/agents"
)

const HandlerID = "clarify"

const clarifyText = "没太明白你的意思。可以这样问我：" +
	"「Uzi直播了吗」查询主播状态，" +
	"「生成今日简报」获取游戏圈汇总，" +
	"「热门游戏有哪些」查看热度排行，" +
	"「系统状态」查看服务健康情况。"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) ID() string {
	return HandlerID
}

func (h *Handler) Handle(_ context.Context, _ agents.Query) (*agents.Reply, error) {
	return &agents.Reply{Text: clarifyText}, nil
}
