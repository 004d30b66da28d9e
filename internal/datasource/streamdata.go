package datasource

import "time"

// StreamData is the unified stream record every backend normalizes into,
// whatever its native wire format.
type StreamData struct {
	StreamerID   string     `json:"streamer_id"`
	StreamerName string     `json:"streamer_name"`
	Platform     string     `json:"platform"`
	GameName     string     `json:"game_name"`
	Title        string     `json:"title"`
	IsLive       bool       `json:"is_live"`
	ViewerCount  int        `json:"viewer_count"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	RoomURL      string     `json:"room_url,omitempty"`
}

// TrendingGame is one entry in the game popularity ranking.
type TrendingGame struct {
	Rank        int    `json:"rank"`
	GameName    string `json:"game_name"`
	ViewerCount int    `json:"viewer_count"`
	StreamCount int    `json:"stream_count"`
}

// NewStreamStatusQuery builds the query for live-status lookups. An empty
// streamer name asks for the current top streams instead.
func NewStreamStatusQuery(streamer string, timeout, cacheTTL time.Duration) DataQuery {
	params := map[string]string{}
	if streamer != "" {
		params["streamer"] = streamer
	}
	return DataQuery{
		QueryType:  QueryStreamStatus,
		Parameters: params,
		Timeout:    timeout,
		CacheTTL:   cacheTTL,
	}
}

// NewTrendingQuery builds the query for the trending-games ranking.
func NewTrendingQuery(limit string, timeout, cacheTTL time.Duration) DataQuery {
	params := map[string]string{}
	if limit != "" {
		params["limit"] = limit
	}
	return DataQuery{
		QueryType:  QueryTrending,
		Parameters: params,
		Timeout:    timeout,
		CacheTTL:   cacheTTL,
	}
}
