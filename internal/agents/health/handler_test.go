package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"streamscout/internal/agents"
	"streamscout/internal/cache"
	"streamscout/internal/common/logger"
	"streamscout/internal/datasource"
	"streamscout/internal/recovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAllHealthy(t *testing.T) {
	rec := recovery.NewManager(3, 30*time.Second, logger.NewTestLogger(t))
	rec.Register("live-status")

	data := datasource.NewManager(
		[]datasource.Source{datasource.NewMockSource()},
		cache.NewLRU(100, time.Minute), 3, logger.NewTestLogger(t))

	h := NewHandler(rec, data)
	reply, err := h.Handle(context.Background(), agents.Query{Text: "系统状态"})
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "系统运行正常")

	report, ok := reply.Data.(Report)
	require.True(t, ok)
	assert.Contains(t, report.Handlers, "live-status")
	assert.True(t, report.Sources[datasource.SourceMock].Healthy)
}

func TestHandleReportsDegradation(t *testing.T) {
	rec := recovery.NewManager(2, 30*time.Second, logger.NewNoOpLogger())
	rec.ReportOutcome("briefing", false, fmt.Errorf("down"))
	rec.ReportOutcome("briefing", false, fmt.Errorf("down"))

	data := datasource.NewManager(
		[]datasource.Source{datasource.NewMockSource()},
		cache.NewLRU(100, time.Minute), 3, logger.NewNoOpLogger())

	h := NewHandler(rec, data)
	reply, err := h.Handle(context.Background(), agents.Query{})
	require.NoError(t, err)

	assert.Contains(t, reply.Text, "降级")
	assert.Contains(t, reply.Text, "briefing")
}
