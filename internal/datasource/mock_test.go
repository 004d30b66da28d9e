package datasource

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceIsDeterministic(t *testing.T) {
	source := NewMockSource()
	query := NewStreamStatusQuery("Uzi", time.Second, time.Minute)

	first, err := source.Fetch(context.Background(), query)
	require.NoError(t, err)
	second, err := source.Fetch(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMockSourceStreamLookup(t *testing.T) {
	source := NewMockSource()

	payload, err := source.Fetch(context.Background(),
		NewStreamStatusQuery("faker", time.Second, time.Minute))
	require.NoError(t, err)

	var streams []StreamData
	require.NoError(t, json.Unmarshal(payload, &streams))
	require.Len(t, streams, 1)
	assert.Equal(t, "Faker", streams[0].StreamerName)
	assert.True(t, streams[0].IsLive)

	// Name matching ignores case.
	upper, err := source.Fetch(context.Background(),
		NewStreamStatusQuery("FAKER", time.Second, time.Minute))
	require.NoError(t, err)
	assert.Equal(t, payload, upper)
}

func TestMockSourceUnknownStreamerIsOffline(t *testing.T) {
	source := NewMockSource()

	payload, err := source.Fetch(context.Background(),
		NewStreamStatusQuery("somebody", time.Second, time.Minute))
	require.NoError(t, err)

	var streams []StreamData
	require.NoError(t, json.Unmarshal(payload, &streams))
	require.Len(t, streams, 1)
	assert.False(t, streams[0].IsLive)
}

func TestMockSourceTopStreamsOrdering(t *testing.T) {
	source := NewMockSource()

	payload, err := source.Fetch(context.Background(),
		NewStreamStatusQuery("", time.Second, time.Minute))
	require.NoError(t, err)

	var streams []StreamData
	require.NoError(t, json.Unmarshal(payload, &streams))
	require.NotEmpty(t, streams)

	// Live streams first, viewers descending within the live block.
	sawOffline := false
	lastViewers := int(^uint(0) >> 1)
	for _, stream := range streams {
		if !stream.IsLive {
			sawOffline = true
			continue
		}
		assert.False(t, sawOffline, "live streams must precede offline ones")
		assert.LessOrEqual(t, stream.ViewerCount, lastViewers)
		lastViewers = stream.ViewerCount
	}
}

func TestMockSourceTrendingLimit(t *testing.T) {
	source := NewMockSource()

	payload, err := source.Fetch(context.Background(),
		NewTrendingQuery("3", time.Second, time.Minute))
	require.NoError(t, err)

	var games []TrendingGame
	require.NoError(t, json.Unmarshal(payload, &games))
	require.Len(t, games, 3)
	assert.Equal(t, 1, games[0].Rank)
}

func TestMockSourceRejectsUnknownQueryType(t *testing.T) {
	source := NewMockSource()

	_, err := source.Fetch(context.Background(), DataQuery{QueryType: "astrology"})
	assert.Error(t, err)
}

func TestMockSourceAlwaysHealthy(t *testing.T) {
	assert.NoError(t, NewMockSource().HealthCheck(context.Background()))
}
