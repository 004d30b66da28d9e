package datasource

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	commonErrors "streamscout/internal/common/errors"
	commonHTTP "streamscout/internal/common/http"
	"streamscout/internal/common/logger"
)

// LiveSource fetches real data from the streaming-platform API. Auth and
// wire format are its concern alone; it hands back the unified StreamData
// and TrendingGame shapes.
type LiveSource struct {
	baseURL   string
	authToken string
	client    *commonHTTP.Client
	log       logger.Logger
}

func NewLiveSource(baseURL, authToken string, timeout time.Duration, log logger.Logger) *LiveSource {
	return &LiveSource{
		baseURL:   baseURL,
		authToken: authToken,
		client:    commonHTTP.NewClient(timeout),
		log:       log,
	}
}

func (s *LiveSource) ID() string {
	return SourceLiveAPI
}

// Platform API wire shapes.
type apiStream struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Platform    string `json:"platform"`
	GameName    string `json:"game_name"`
	Title       string `json:"title"`
	Type        string `json:"type"` // "live" when broadcasting
	ViewerCount int    `json:"viewer_count"`
	StartedAt   string `json:"started_at"`
	RoomURL     string `json:"room_url"`
}

type apiStreamList struct {
	Data []apiStream `json:"data"`
}

type apiGame struct {
	Name        string `json:"name"`
	ViewerCount int    `json:"viewer_count"`
	StreamCount int    `json:"stream_count"`
}

type apiGameList struct {
	Data []apiGame `json:"data"`
}

func (s *LiveSource) Fetch(ctx context.Context, query DataQuery) (json.RawMessage, error) {
	switch query.QueryType {
	case QueryStreamStatus:
		return s.fetchStreams(ctx, query)
	case QueryTrending:
		return s.fetchTrending(ctx, query)
	default:
		return nil, fmt.Errorf("live source: unsupported query type %q", query.QueryType)
	}
}

func (s *LiveSource) fetchStreams(ctx context.Context, query DataQuery) (json.RawMessage, error) {
	endpoint := s.baseURL + "/streams"
	params := url.Values{}
	if streamer := query.Parameters["streamer"]; streamer != "" {
		params.Set("user_login", streamer)
	}
	params.Set("first", "10")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var wire apiStreamList
	if err := s.client.GetJSON(ctx, endpoint, s.headers(), &wire); err != nil {
		return nil, s.classify(err)
	}

	streams := make([]StreamData, 0, len(wire.Data))
	for _, raw := range wire.Data {
		stream := StreamData{
			StreamerID:   raw.UserID,
			StreamerName: raw.UserName,
			Platform:     raw.Platform,
			GameName:     raw.GameName,
			Title:        raw.Title,
			IsLive:       raw.Type == "live",
			ViewerCount:  raw.ViewerCount,
			RoomURL:      raw.RoomURL,
		}
		if raw.StartedAt != "" {
			if ts, err := time.Parse(time.RFC3339, raw.StartedAt); err == nil {
				stream.StartedAt = &ts
			}
		}
		streams = append(streams, stream)
	}

	// A streamer the platform has never heard of comes back as an empty
	// list; report them as offline so callers get a definite answer.
	if len(streams) == 0 {
		if streamer := query.Parameters["streamer"]; streamer != "" {
			streams = append(streams, StreamData{StreamerName: streamer, IsLive: false})
		}
	}

	return json.Marshal(streams)
}

func (s *LiveSource) fetchTrending(ctx context.Context, query DataQuery) (json.RawMessage, error) {
	endpoint := s.baseURL + "/games/top"
	if limit := query.Parameters["limit"]; limit != "" {
		endpoint += "?first=" + url.QueryEscape(limit)
	}

	var wire apiGameList
	if err := s.client.GetJSON(ctx, endpoint, s.headers(), &wire); err != nil {
		return nil, s.classify(err)
	}

	games := make([]TrendingGame, 0, len(wire.Data))
	for i, raw := range wire.Data {
		games = append(games, TrendingGame{
			Rank:        i + 1,
			GameName:    raw.Name,
			ViewerCount: raw.ViewerCount,
			StreamCount: raw.StreamCount,
		})
	}

	return json.Marshal(games)
}

func (s *LiveSource) HealthCheck(ctx context.Context) error {
	return s.client.GetJSON(ctx, s.baseURL+"/health", s.headers(), nil)
}

func (s *LiveSource) headers() map[string]string {
	if s.authToken == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + s.authToken}
}

// classify keeps API status failures distinguishable from transport ones.
func (s *LiveSource) classify(err error) error {
	var statusErr *commonHTTP.StatusError
	if stderrors.As(err, &statusErr) {
		return commonErrors.NewAPIError("streaming platform", statusErr.StatusCode, statusErr.Body)
	}
	return err
}
