package briefing

import (
	"time"

	"streamscout/internal/datasource"
)

// BriefingData is the structured material a briefing is rendered from: the
// top live streams ranked by viewers plus the trending game ranking.
type BriefingData struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	TopStreams  []datasource.StreamData   `json:"top_streams"`
	Trending    []datasource.TrendingGame `json:"trending"`
	Degraded    bool                      `json:"degraded"`
}
