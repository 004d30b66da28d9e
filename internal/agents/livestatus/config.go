package livestatus

import "time"

// Config controls the handler's data fetches. Stream status goes stale
// quickly, so its cache TTL is short.
type Config struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
	TopStreams   int
}

func DefaultConfig() Config {
	return Config{
		FetchTimeout: 2500 * time.Millisecond,
		CacheTTL:     60 * time.Second,
		TopStreams:   5,
	}
}
