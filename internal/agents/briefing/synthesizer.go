package briefing

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonHTTP "streamscout/internal/common/http"
)

// Synthesizer turns briefing material into prose. The remote implementation
// delegates to the external text-generation service; renderTemplate is the
// deterministic local fallback.
type Synthesizer interface {
	Synthesize(ctx context.Context, data BriefingData) (string, error)
}

// RemoteSynthesizer calls the text-generation service.
type RemoteSynthesizer struct {
	baseURL string
	apiKey  string
	client  *commonHTTP.Client
}

func NewRemoteSynthesizer(baseURL, apiKey string, timeout time.Duration) *RemoteSynthesizer {
	return &RemoteSynthesizer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  commonHTTP.NewClient(timeout),
	}
}

type synthesizeRequest struct {
	Kind string       `json:"kind"`
	Data BriefingData `json:"data"`
}

type synthesizeResponse struct {
	Content string `json:"content"`
}

func (s *RemoteSynthesizer) Synthesize(ctx context.Context, data BriefingData) (string, error) {
	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}

	var resp synthesizeResponse
	err := s.client.PostJSON(ctx, s.baseURL+"/api/ai/synthesize", headers,
		synthesizeRequest{Kind: "daily_briefing", Data: data}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("synthesis service returned empty content")
	}
	return resp.Content, nil
}

// renderTemplate produces the plain deterministic briefing used whenever the
// synthesis service is disabled or unavailable.
func renderTemplate(data BriefingData) string {
	var b strings.Builder
	b.WriteString("游戏圈简报（")
	b.WriteString(data.GeneratedAt.Format("2006-01-02 15:04"))
	b.WriteString("）。")

	if len(data.TopStreams) > 0 {
		b.WriteString("热门直播：")
		for i, s := range data.TopStreams {
			if i > 0 {
				b.WriteString("；")
			}
			fmt.Fprintf(&b, "%s 直播 %s（%d 人观看）", s.StreamerName, s.GameName, s.ViewerCount)
		}
		b.WriteString("。")
	} else {
		b.WriteString("当前没有主播在直播。")
	}

	if len(data.Trending) > 0 {
		b.WriteString("热门游戏：")
		for i, g := range data.Trending {
			if i > 0 {
				b.WriteString("、")
			}
			b.WriteString(g.GameName)
		}
		b.WriteString("。")
	}

	if data.Degraded {
		b.WriteString("部分数据暂时不可用，以上为可获取内容。")
	}

	return b.String()
}
