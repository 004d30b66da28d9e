package livestatus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"streamscout/internal/agents"
	"streamscout/internal/cache"
	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/datasource"
	"streamscout/internal/intent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, sources ...datasource.Source) *Handler {
	t.Helper()
	if len(sources) == 0 {
		sources = []datasource.Source{datasource.NewMockSource()}
	}
	manager := datasource.NewManager(sources,
		cache.NewLRU(100, time.Minute), 3, logger.NewTestLogger(t))
	return NewHandler(manager, DefaultConfig())
}

func TestHandleNamedStreamerLive(t *testing.T) {
	h := newTestHandler(t)

	reply, err := h.Handle(context.Background(), agents.Query{
		Text:     "Uzi直播了吗",
		Intent:   intent.IntentStatusQuery,
		Entities: map[string]string{intent.EntityStreamer: "Uzi"},
	})

	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Uzi")
	assert.Contains(t, reply.Text, "正在")

	payload, ok := reply.Data.(StatusPayload)
	require.True(t, ok)
	assert.Equal(t, datasource.SourceMock, payload.SourceID)
	require.Len(t, payload.Streams, 1)
	assert.True(t, payload.Streams[0].IsLive)
}

func TestHandleNamedStreamerOffline(t *testing.T) {
	h := newTestHandler(t)

	reply, err := h.Handle(context.Background(), agents.Query{
		Intent:   intent.IntentStatusQuery,
		Entities: map[string]string{intent.EntityStreamer: "Rookie"},
	})

	require.NoError(t, err)
	assert.Contains(t, reply.Text, "未开播")
}

func TestHandleTopStreams(t *testing.T) {
	h := newTestHandler(t)

	reply, err := h.Handle(context.Background(), agents.Query{
		Text:   "谁在直播",
		Intent: intent.IntentStatusQuery,
	})

	require.NoError(t, err)
	assert.Contains(t, reply.Text, "热门直播")

	payload, ok := reply.Data.(StatusPayload)
	require.True(t, ok)
	assert.NotEmpty(t, payload.Streams)
}

type brokenSource struct{}

func (brokenSource) ID() string { return "live_api" }
func (brokenSource) Fetch(context.Context, datasource.DataQuery) (json.RawMessage, error) {
	return nil, commonErrors.NewNetworkError("platform", nil)
}
func (brokenSource) HealthCheck(context.Context) error { return nil }

func TestHandleAllSourcesDown(t *testing.T) {
	h := newTestHandler(t, brokenSource{})

	_, err := h.Handle(context.Background(), agents.Query{
		Intent:   intent.IntentStatusQuery,
		Entities: map[string]string{intent.EntityStreamer: "Uzi"},
	})

	require.Error(t, err)
	classified := commonErrors.Classify(err)
	assert.Equal(t, commonErrors.CategoryDataSource, classified.Category)
}
