package briefing

import "time"

type Config struct {
	FetchTimeout  time.Duration
	ComposeBudget time.Duration
	StreamTTL     time.Duration
	TrendingTTL   time.Duration
	TopStreams    int
	TopGames      int
}

func DefaultConfig() Config {
	return Config{
		FetchTimeout:  2500 * time.Millisecond,
		ComposeBudget: 8 * time.Second,
		StreamTTL:     60 * time.Second,
		TrendingTTL:   300 * time.Second,
		TopStreams:    5,
		TopGames:      5,
	}
}
