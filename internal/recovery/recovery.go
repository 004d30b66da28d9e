// Package recovery tracks per-handler health. Repeated failures push a
// handler into a cooldown window during which the router short-circuits to a
// degraded response instead of invoking it.
package recovery

import (
	"sync"
	"time"

	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/common/metrics"
)

// State is a handler's position in the Active -> Degraded -> CoolingDown
// cycle.
type State string

const (
	StateActive      State = "active"
	StateDegraded    State = "degraded"
	StateCoolingDown State = "cooling_down"
)

// AgentStatus is the per-handler health record. One exists per registered
// handler id for the whole process lifetime; it is reset, never deleted.
type AgentStatus struct {
	HandlerID     string                 `json:"handler_id"`
	State         State                  `json:"state"`
	Available     bool                   `json:"available"`
	ErrorCount    int                    `json:"error_count"`
	LastErrorAt   *time.Time             `json:"last_error_at,omitempty"`
	CooldownUntil *time.Time             `json:"cooldown_until,omitempty"`
	LastCategory  commonErrors.Category  `json:"last_category,omitempty"`
	LastError     *commonErrors.AgentError `json:"-"`
}

// Manager owns every AgentStatus. All mutation happens under one mutex;
// contention is low because updates are one map write per handler outcome.
type Manager struct {
	mu        sync.Mutex
	statuses  map[string]*AgentStatus
	threshold int
	cooldown  time.Duration
	log       logger.Logger

	now func() time.Time
}

func NewManager(threshold int, cooldown time.Duration, log logger.Logger) *Manager {
	if threshold < 1 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Manager{
		statuses:  make(map[string]*AgentStatus),
		threshold: threshold,
		cooldown:  cooldown,
		log:       log,
		now:       time.Now,
	}
}

// Register creates the status record for a handler id. Registering an
// existing id is a no-op so startup wiring can be idempotent.
func (m *Manager) Register(handlerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked(handlerID)
}

func (m *Manager) ensureLocked(handlerID string) *AgentStatus {
	status, ok := m.statuses[handlerID]
	if !ok {
		status = &AgentStatus{
			HandlerID: handlerID,
			State:     StateActive,
			Available: true,
		}
		m.statuses[handlerID] = status
	}
	return status
}

// ReportOutcome records one handler invocation result. A success resets the
// error count immediately; failures accumulate and trip the cooldown once
// the consecutive-failure threshold is reached.
func (m *Manager) ReportOutcome(handlerID string, success bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := m.ensureLocked(handlerID)

	if success {
		if status.State != StateActive {
			m.transitionLocked(status, StateActive)
		}
		status.ErrorCount = 0
		status.Available = true
		status.CooldownUntil = nil
		status.LastError = nil
		return
	}

	now := m.now()
	classified := commonErrors.Classify(err)
	if classified == nil {
		classified = commonErrors.NewHandlerError(handlerID, nil)
	}

	status.ErrorCount++
	status.LastErrorAt = &now
	status.LastCategory = classified.Category
	status.LastError = classified

	if status.ErrorCount >= m.threshold {
		until := now.Add(m.cooldown)
		status.CooldownUntil = &until
		status.Available = false
		if status.State != StateCoolingDown {
			m.transitionLocked(status, StateCoolingDown)
		}
		return
	}

	if status.State != StateDegraded {
		m.transitionLocked(status, StateDegraded)
	}
}

func (m *Manager) transitionLocked(status *AgentStatus, next State) {
	m.log.Info("handler state transition", map[string]interface{}{
		"handler_id":  status.HandlerID,
		"from":        string(status.State),
		"to":          string(next),
		"error_count": status.ErrorCount,
		"category":    string(status.LastCategory),
	})
	metrics.RecoveryTransitions.WithLabelValues(status.HandlerID, string(next)).Inc()
	status.State = next
}

// IsHealthy reports whether the router may invoke a handler. During an
// active cooldown window it returns false; once the window elapses the
// handler is invokable again, though its error count only clears on the
// next success.
func (m *Manager) IsHealthy(handlerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[handlerID]
	if !ok {
		return true
	}

	if status.State == StateCoolingDown && status.CooldownUntil != nil {
		if m.now().Before(*status.CooldownUntil) {
			return false
		}
		// Window elapsed: invokable again, pending a confirming success.
		status.Available = true
	}
	return true
}

// UserMessage returns the safe template for a handler's last failure, or the
// generic handler-unavailable message when nothing specific was recorded.
func (m *Manager) UserMessage(handlerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[handlerID]
	if !ok || status.LastError == nil {
		return commonErrors.UserMessageFor(commonErrors.CategoryAgent)
	}
	return status.LastError.UserMessage()
}

// Snapshot returns a copy of every status record for health reporting.
func (m *Manager) Snapshot() map[string]AgentStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]AgentStatus, len(m.statuses))
	for id, status := range m.statuses {
		out[id] = *status
	}
	return out
}

// Reset returns a handler to a clean Active state. Used by operators and by
// failover tests.
func (m *Manager) Reset(handlerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[handlerID]
	if !ok {
		return
	}

	if status.State != StateActive {
		m.transitionLocked(status, StateActive)
	}
	status.ErrorCount = 0
	status.Available = true
	status.LastErrorAt = nil
	status.CooldownUntil = nil
	status.LastError = nil
	status.LastCategory = ""
}
