// Package router turns request text into an answer: it classifies the
// intent, selects the mapped handlers, dispatches them under the bounded
// pool, and merges whatever came back. Handler failures degrade the reply;
// they never escape as errors.
package router

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamscout/internal/agents"
	"streamscout/internal/common/config"
	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/common/metrics"
	"streamscout/internal/common/observability"
	"streamscout/internal/dispatch"
	"streamscout/internal/intent"
	"streamscout/internal/recovery"
)

const defaultDeadline = 3 * time.Second

const greetingReply = "你好！我是游戏直播助手。你可以问我主播的直播状态、热门游戏排行，" +
	"或者让我生成一份今日简报。"

// Request is one inbound question, already validated by the transport layer.
type Request struct {
	RequestID string
	SessionID string
	UserID    string
	Text      string
}

// HandlerResult is one handler's contribution to the reply, in the mapping's
// declaration order.
type HandlerResult struct {
	HandlerID string      `json:"handler_id"`
	Success   bool        `json:"success"`
	Skipped   bool        `json:"skipped,omitempty"`
	Text      string      `json:"text,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Envelope is the routed response. Success means at least one handler
// produced an answer; a false Success still carries a user-safe Text.
type Envelope struct {
	RequestID  string          `json:"request_id"`
	Success    bool            `json:"success"`
	Intent     intent.Intent   `json:"intent"`
	Confidence float64         `json:"confidence"`
	Text       string          `json:"text"`
	Results    []HandlerResult `json:"results,omitempty"`
	ElapsedMs  int64           `json:"elapsed_ms"`
}

type Router struct {
	classifier intent.Classifier
	registry   *agents.Registry
	pool       *dispatch.Pool
	recovery   *recovery.Manager
	handlers   map[intent.Intent][]string
	deadline   time.Duration
	log        logger.Logger
	obs        *observability.Observability
}

// New validates the intent-to-handler mapping against the registry and
// registers every mapped handler with the recovery manager. obs may be nil.
func New(
	classifier intent.Classifier,
	registry *agents.Registry,
	pool *dispatch.Pool,
	rec *recovery.Manager,
	routing config.RoutingConfig,
	log logger.Logger,
	obs *observability.Observability,
) (*Router, error) {
	handlers := make(map[intent.Intent][]string, len(routing.Handlers))
	for key, ids := range routing.Handlers {
		for _, id := range ids {
			if _, ok := registry.Get(id); !ok {
				return nil, commonErrors.NewValidationError("routing.handlers",
					"handler "+id+" is not registered")
			}
			rec.Register(id)
		}
		handlers[intent.ParseIntent(key)] = ids
	}

	deadline := time.Duration(routing.DefaultDeadline) * time.Millisecond
	if deadline <= 0 {
		deadline = defaultDeadline
	}

	return &Router{
		classifier: classifier,
		registry:   registry,
		pool:       pool,
		recovery:   rec,
		handlers:   handlers,
		deadline:   deadline,
		log:        log,
		obs:        obs,
	}, nil
}

// Route answers one request. It always returns an Envelope; routing-level
// problems surface as Success=false with a user-safe Text.
func (r *Router) Route(ctx context.Context, req Request) Envelope {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	classified, err := r.classifier.Classify(ctx, req.Text)
	if err != nil {
		env := Envelope{
			RequestID: req.RequestID,
			Intent:    intent.IntentUnknown,
			Text:      commonErrors.Classify(err).UserMessage(),
		}
		return r.finish(ctx, req, env, start, nil)
	}

	env := Envelope{
		RequestID:  req.RequestID,
		Intent:     classified.Intent,
		Confidence: classified.Confidence,
	}

	// Greetings are answered in place; no handler ever runs for them.
	if classified.Intent == intent.IntentGreeting {
		env.Success = true
		env.Text = greetingReply
		return r.finish(ctx, req, env, start, nil)
	}

	handlerIDs := r.handlersFor(classified.Intent)
	query := agents.Query{
		RequestID: req.RequestID,
		SessionID: req.SessionID,
		Text:      req.Text,
		Intent:    classified.Intent,
		Entities:  classified.Entities,
	}

	results, failures := r.dispatch(ctx, handlerIDs, query)
	env.Results = results
	env.Success, env.Text = merge(results, failures)
	return r.finish(ctx, req, env, start, handlerIDs)
}

// handlersFor resolves the mapped handler list, falling back to the unknown
// mapping so every intent resolves to at least the clarify handler.
func (r *Router) handlersFor(in intent.Intent) []string {
	if ids := r.handlers[in]; len(ids) > 0 {
		return ids
	}
	return r.handlers[intent.IntentUnknown]
}

// dispatch runs the healthy handlers as one bounded batch and reports every
// invocation outcome to the recovery manager. Handlers in cooldown are
// skipped up front and answered with their recorded degradation message.
func (r *Router) dispatch(ctx context.Context, handlerIDs []string, query agents.Query) ([]HandlerResult, []*commonErrors.AgentError) {
	results := make([]HandlerResult, len(handlerIDs))
	var failures []*commonErrors.AgentError
	taskIdx := make(map[string]int, len(handlerIDs))
	var tasks []dispatch.Task

	for i, id := range handlerIDs {
		if !r.recovery.IsHealthy(id) {
			results[i] = HandlerResult{
				HandlerID: id,
				Skipped:   true,
				Text:      r.recovery.UserMessage(id),
			}
			continue
		}

		agent, _ := r.registry.Get(id)
		taskIdx[id] = i
		tasks = append(tasks, dispatch.Task{
			ID: id,
			Run: func(ctx context.Context) (interface{}, error) {
				metrics.HandlersActive.WithLabelValues(id).Inc()
				defer metrics.HandlersActive.WithLabelValues(id).Dec()
				return agent.Handle(ctx, query)
			},
		})
	}

	for _, outcome := range r.pool.RunIndependent(ctx, tasks, r.deadline) {
		i := taskIdx[outcome.TaskID]
		r.recovery.ReportOutcome(outcome.TaskID, outcome.Err == nil, outcome.Err)

		if outcome.Err != nil {
			classified := commonErrors.Classify(outcome.Err)
			failures = append(failures, classified)
			results[i] = HandlerResult{
				HandlerID: outcome.TaskID,
				Error:     classified.Error(),
			}
			continue
		}

		reply, _ := outcome.Value.(*agents.Reply)
		if reply == nil {
			reply = &agents.Reply{}
		}
		results[i] = HandlerResult{
			HandlerID: outcome.TaskID,
			Success:   true,
			Text:      reply.Text,
			Data:      reply.Data,
		}
	}

	return results, failures
}

// merge combines handler results in declaration order. Any success makes the
// reply a success; otherwise the most severe failure picks the user message.
func merge(results []HandlerResult, failures []*commonErrors.AgentError) (bool, string) {
	var texts []string
	var skippedMsgs []string

	for _, res := range results {
		switch {
		case res.Success:
			if res.Text != "" {
				texts = append(texts, res.Text)
			}
		case res.Skipped:
			skippedMsgs = append(skippedMsgs, res.Text)
		}
	}

	if len(texts) > 0 {
		return true, strings.Join(texts, "\n")
	}
	if len(failures) > 0 {
		return false, commonErrors.MostSevere(failures).UserMessage()
	}
	if len(skippedMsgs) > 0 {
		return false, strings.Join(skippedMsgs, "\n")
	}
	return false, commonErrors.UserMessageFor(commonErrors.CategoryUnknown)
}

// finish stamps the envelope, emits metrics and the single per-request log
// record, and returns the envelope unchanged otherwise.
func (r *Router) finish(ctx context.Context, req Request, env Envelope, start time.Time, handlerIDs []string) Envelope {
	elapsed := time.Since(start)
	env.ElapsedMs = elapsed.Milliseconds()

	status := "failure"
	if env.Success {
		status = "success"
	}

	metrics.RequestsTotal.WithLabelValues(string(env.Intent), status).Inc()
	metrics.RequestDuration.WithLabelValues(string(env.Intent)).Observe(elapsed.Seconds())
	if r.obs != nil {
		r.obs.RecordRequest(ctx, string(env.Intent), status)
		r.obs.RecordRequestDuration(ctx, elapsed, string(env.Intent))
	}

	r.log.Info("request routed", map[string]interface{}{
		"request_id": env.RequestID,
		"session_id": req.SessionID,
		"intent":     string(env.Intent),
		"confidence": env.Confidence,
		"handlers":   handlerIDs,
		"success":    env.Success,
		"elapsed_ms": env.ElapsedMs,
	})

	return env
}
