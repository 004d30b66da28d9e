package recovery

import (
	"fmt"
	"testing"
	"time"

	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, threshold int, cooldown time.Duration) (*Manager, *time.Time) {
	t.Helper()

	m := NewManager(threshold, cooldown, logger.NewTestLogger(t))
	now := time.Now()
	m.now = func() time.Time { return now }
	return m, &now
}

func TestHealthyByDefault(t *testing.T) {
	m, _ := newTestManager(t, 3, 30*time.Second)
	m.Register("live-status")

	assert.True(t, m.IsHealthy("live-status"))
	assert.True(t, m.IsHealthy("never-registered"))
}

func TestCooldownAfterThreshold(t *testing.T) {
	m, now := newTestManager(t, 3, 30*time.Second)
	m.Register("live-status")

	failure := fmt.Errorf("dial tcp: connection refused")
	m.ReportOutcome("live-status", false, failure)
	m.ReportOutcome("live-status", false, failure)
	assert.True(t, m.IsHealthy("live-status"), "below threshold stays healthy")

	m.ReportOutcome("live-status", false, failure)
	assert.False(t, m.IsHealthy("live-status"), "threshold reached trips cooldown")

	status := m.Snapshot()["live-status"]
	assert.Equal(t, StateCoolingDown, status.State)
	assert.Equal(t, 3, status.ErrorCount)
	assert.Equal(t, commonErrors.CategoryNetwork, status.LastCategory)
	require.NotNil(t, status.CooldownUntil)

	// Still inside the window.
	*now = now.Add(29 * time.Second)
	assert.False(t, m.IsHealthy("live-status"))

	// Window elapsed: invokable again, error count intact until a success.
	*now = now.Add(2 * time.Second)
	assert.True(t, m.IsHealthy("live-status"))
	assert.Equal(t, 3, m.Snapshot()["live-status"].ErrorCount)

	m.ReportOutcome("live-status", true, nil)
	status = m.Snapshot()["live-status"]
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, 0, status.ErrorCount)
	assert.Nil(t, status.CooldownUntil)
}

func TestSuccessResetsDegradedCounter(t *testing.T) {
	m, _ := newTestManager(t, 3, 30*time.Second)

	m.ReportOutcome("briefing", false, fmt.Errorf("upstream hiccup"))
	m.ReportOutcome("briefing", false, fmt.Errorf("upstream hiccup"))
	assert.Equal(t, StateDegraded, m.Snapshot()["briefing"].State)

	m.ReportOutcome("briefing", true, nil)
	status := m.Snapshot()["briefing"]
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, 0, status.ErrorCount)
	assert.True(t, m.IsHealthy("briefing"))
}

func TestTimePassageAloneDoesNotResetCounter(t *testing.T) {
	m, now := newTestManager(t, 3, 30*time.Second)

	m.ReportOutcome("trending", false, fmt.Errorf("down"))
	m.ReportOutcome("trending", false, fmt.Errorf("down"))

	*now = now.Add(time.Hour)
	assert.True(t, m.IsHealthy("trending"))
	assert.Equal(t, 2, m.Snapshot()["trending"].ErrorCount,
		"error count only clears on a subsequent success")
}

func TestReset(t *testing.T) {
	m, _ := newTestManager(t, 2, 30*time.Second)

	m.ReportOutcome("health", false, fmt.Errorf("boom"))
	m.ReportOutcome("health", false, fmt.Errorf("boom"))
	assert.False(t, m.IsHealthy("health"))

	m.Reset("health")
	assert.True(t, m.IsHealthy("health"))

	status := m.Snapshot()["health"]
	assert.Equal(t, StateActive, status.State)
	assert.Equal(t, 0, status.ErrorCount)
	assert.Nil(t, status.LastErrorAt)
}

func TestUserMessageFollowsLastFailureCategory(t *testing.T) {
	m, _ := newTestManager(t, 3, 30*time.Second)

	assert.Equal(t, commonErrors.UserMessageFor(commonErrors.CategoryAgent), m.UserMessage("unseen"))

	m.ReportOutcome("live-status", false, commonErrors.NewAllSourcesFailedError("stream_status", 3))
	assert.Equal(t,
		commonErrors.UserMessageFor(commonErrors.CategoryDataSource),
		m.UserMessage("live-status"))
}

func TestStatusesAreIndependent(t *testing.T) {
	m, _ := newTestManager(t, 2, 30*time.Second)

	m.ReportOutcome("a", false, fmt.Errorf("boom"))
	m.ReportOutcome("a", false, fmt.Errorf("boom"))
	m.ReportOutcome("b", false, fmt.Errorf("boom"))

	assert.False(t, m.IsHealthy("a"))
	assert.True(t, m.IsHealthy("b"))
}
