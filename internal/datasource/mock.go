package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MockSource serves a fixed roster of streamers and a fixed game ranking.
// It is fully deterministic: the same query always yields the same payload,
// which makes it usable both as a failover backend and as a test fixture.
// It is always healthy.
type MockSource struct {
	streams  map[string]StreamData
	trending []TrendingGame
}

func NewMockSource() *MockSource {
	streams := map[string]StreamData{
		"uzi": {
			StreamerID:   "mock-1001",
			StreamerName: "Uzi",
			Platform:     "huya",
			GameName:     "英雄联盟",
			Title:        "冲分之路，今天上大师",
			IsLive:       true,
			ViewerCount:  152000,
			RoomURL:      "https://www.huya.com/uzi",
		},
		"faker": {
			StreamerID:   "mock-1002",
			StreamerName: "Faker",
			Platform:     "twitch",
			GameName:     "League of Legends",
			Title:        "Solo queue grind",
			IsLive:       true,
			ViewerCount:  98000,
			RoomURL:      "https://www.twitch.tv/faker",
		},
		"大司马": {
			StreamerID:   "mock-1003",
			StreamerName: "大司马",
			Platform:     "huya",
			GameName:     "英雄联盟",
			Title:        "金牌讲师在线教学",
			IsLive:       false,
			ViewerCount:  0,
		},
		"theshy": {
			StreamerID:   "mock-1004",
			StreamerName: "TheShy",
			Platform:     "huya",
			GameName:     "英雄联盟",
			Title:        "上单教学局",
			IsLive:       true,
			ViewerCount:  67000,
			RoomURL:      "https://www.huya.com/theshy",
		},
		"rookie": {
			StreamerID:   "mock-1005",
			StreamerName: "Rookie",
			Platform:     "huya",
			GameName:     "英雄联盟",
			Title:        "中单节奏大师",
			IsLive:       false,
			ViewerCount:  0,
		},
		"doublelift": {
			StreamerID:   "mock-1006",
			StreamerName: "Doublelift",
			Platform:     "twitch",
			GameName:     "League of Legends",
			Title:        "ADC diff",
			IsLive:       true,
			ViewerCount:  31000,
			RoomURL:      "https://www.twitch.tv/doublelift",
		},
	}

	trending := []TrendingGame{
		{Rank: 1, GameName: "英雄联盟", ViewerCount: 890000, StreamCount: 4200},
		{Rank: 2, GameName: "王者荣耀", ViewerCount: 610000, StreamCount: 3800},
		{Rank: 3, GameName: "CS2", ViewerCount: 340000, StreamCount: 1500},
		{Rank: 4, GameName: "DOTA2", ViewerCount: 210000, StreamCount: 900},
		{Rank: 5, GameName: "永劫无间", ViewerCount: 120000, StreamCount: 700},
	}

	return &MockSource{streams: streams, trending: trending}
}

func (s *MockSource) ID() string {
	return SourceMock
}

func (s *MockSource) Fetch(_ context.Context, query DataQuery) (json.RawMessage, error) {
	switch query.QueryType {
	case QueryStreamStatus:
		return s.fetchStreams(query)
	case QueryTrending:
		return s.fetchTrending(query)
	default:
		return nil, fmt.Errorf("mock source: unsupported query type %q", query.QueryType)
	}
}

func (s *MockSource) fetchStreams(query DataQuery) (json.RawMessage, error) {
	if name, ok := query.Parameters["streamer"]; ok && name != "" {
		stream, found := s.streams[strings.ToLower(name)]
		if !found {
			// Unknown streamers read as offline rather than erroring.
			stream = StreamData{
				StreamerID:   "mock-0",
				StreamerName: name,
				IsLive:       false,
			}
		}
		return json.Marshal([]StreamData{stream})
	}

	// Top streams, live first, then by viewer count descending.
	all := make([]StreamData, 0, len(s.streams))
	for _, stream := range s.streams {
		all = append(all, stream)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].IsLive != all[j].IsLive {
			return all[i].IsLive
		}
		if all[i].ViewerCount != all[j].ViewerCount {
			return all[i].ViewerCount > all[j].ViewerCount
		}
		return all[i].StreamerID < all[j].StreamerID
	})
	return json.Marshal(all)
}

func (s *MockSource) fetchTrending(query DataQuery) (json.RawMessage, error) {
	limit := len(s.trending)
	if raw, ok := query.Parameters["limit"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	return json.Marshal(s.trending[:limit])
}

func (s *MockSource) HealthCheck(_ context.Context) error {
	return nil
}
