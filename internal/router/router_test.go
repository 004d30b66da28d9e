package router

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"streamscout/internal/agents"
	"streamscout/internal/agents/clarify"
	"streamscout/internal/common/config"
	commonErrors "streamscout/internal/common/errors"
	"streamscout/internal/common/logger"
	"streamscout/internal/dispatch"
	"streamscout/internal/intent"
	"streamscout/internal/recovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	id    string
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubAgent) ID() string { return s.id }

func (s *stubAgent) Handle(context.Context, agents.Query) (*agents.Reply, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &agents.Reply{Text: s.text}, nil
}

type fixedClassifier struct {
	result intent.Result
	err    error
}

func (f fixedClassifier) Classify(context.Context, string) (intent.Result, error) {
	return f.result, f.err
}

func newTestRouter(t *testing.T, cls intent.Classifier, handlers map[string][]string, threshold int, list ...agents.Agent) (*Router, *recovery.Manager) {
	t.Helper()

	registry, err := agents.NewRegistry(list...)
	require.NoError(t, err)

	rec := recovery.NewManager(threshold, 30*time.Second, logger.NewTestLogger(t))
	pool := dispatch.NewPool(4, logger.NewTestLogger(t))

	r, err := New(cls, registry, pool, rec,
		config.RoutingConfig{Handlers: handlers, DefaultDeadline: 1000},
		logger.NewTestLogger(t), nil)
	require.NoError(t, err)
	return r, rec
}

func TestRouteGreetingNeverInvokesHandlers(t *testing.T) {
	status := &stubAgent{id: "live-status", text: "should not appear"}
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentGreeting, Confidence: 0.9}}

	r, _ := newTestRouter(t, cls,
		map[string][]string{"status-query": {"live-status"}}, 3, status)

	env := r.Route(context.Background(), Request{Text: "你好"})

	assert.True(t, env.Success)
	assert.Equal(t, intent.IntentGreeting, env.Intent)
	assert.NotEmpty(t, env.Text)
	assert.Empty(t, env.Results)
	assert.Equal(t, int32(0), status.calls.Load())
}

func TestRouteMergesRepliesInDeclarationOrder(t *testing.T) {
	// The slow handler is declared first; its reply must still lead.
	slow := &stubAgent{id: "slow", text: "first", delay: 30 * time.Millisecond}
	fast := &stubAgent{id: "fast", text: "second"}
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentStatusQuery, Confidence: 0.8}}

	r, _ := newTestRouter(t, cls,
		map[string][]string{"status-query": {"slow", "fast"}}, 3, slow, fast)

	env := r.Route(context.Background(), Request{Text: "状态"})

	require.True(t, env.Success)
	assert.Equal(t, "first\nsecond", env.Text)
	require.Len(t, env.Results, 2)
	assert.Equal(t, "slow", env.Results[0].HandlerID)
	assert.Equal(t, "fast", env.Results[1].HandlerID)
}

func TestRouteUnknownIntentClarifies(t *testing.T) {
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentUnknown, Confidence: 0.6}}

	r, _ := newTestRouter(t, cls,
		map[string][]string{"unknown": {"clarify"}}, 3, clarify.NewHandler())

	env := r.Route(context.Background(), Request{Text: "呜啦啦"})

	assert.True(t, env.Success)
	assert.Contains(t, env.Text, "可以这样问我")
}

func TestRouteUnmappedIntentFallsToUnknownMapping(t *testing.T) {
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentTrendQuery, Confidence: 0.7}}

	r, _ := newTestRouter(t, cls,
		map[string][]string{"unknown": {"clarify"}}, 3, clarify.NewHandler())

	env := r.Route(context.Background(), Request{Text: "热门游戏"})

	assert.True(t, env.Success)
	require.Len(t, env.Results, 1)
	assert.Equal(t, "clarify", env.Results[0].HandlerID)
}

func TestRouteSkipsHandlerInCooldown(t *testing.T) {
	flaky := &stubAgent{id: "flaky", text: "never"}
	healthy := &stubAgent{id: "healthy", text: "still here"}
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentStatusQuery, Confidence: 0.8}}

	r, rec := newTestRouter(t, cls,
		map[string][]string{"status-query": {"flaky", "healthy"}}, 1, flaky, healthy)

	rec.ReportOutcome("flaky", false, commonErrors.NewNetworkError("upstream", fmt.Errorf("refused")))

	env := r.Route(context.Background(), Request{Text: "状态"})

	assert.True(t, env.Success)
	assert.Equal(t, "still here", env.Text)
	assert.Equal(t, int32(0), flaky.calls.Load())
	require.Len(t, env.Results, 2)
	assert.True(t, env.Results[0].Skipped)
	assert.NotEmpty(t, env.Results[0].Text)
}

func TestRouteAllHandlersFailed(t *testing.T) {
	a := &stubAgent{id: "a", err: commonErrors.NewNetworkError("upstream", fmt.Errorf("refused"))}
	b := &stubAgent{id: "b", err: commonErrors.NewAllSourcesFailedError("stream_status", 1)}
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentStatusQuery, Confidence: 0.8}}

	r, rec := newTestRouter(t, cls,
		map[string][]string{"status-query": {"a", "b"}}, 3, a, b)

	env := r.Route(context.Background(), Request{Text: "状态"})

	assert.False(t, env.Success)
	// The critical data-source failure outranks the network error.
	assert.Equal(t, commonErrors.UserMessageFor(commonErrors.CategoryDataSource), env.Text)

	statuses := rec.Snapshot()
	assert.Equal(t, 1, statuses["a"].ErrorCount)
	assert.Equal(t, 1, statuses["b"].ErrorCount)
}

func TestRouteSuccessResetsErrorCount(t *testing.T) {
	agent := &stubAgent{id: "live-status", text: "ok"}
	cls := fixedClassifier{result: intent.Result{Intent: intent.IntentStatusQuery, Confidence: 0.8}}

	r, rec := newTestRouter(t, cls,
		map[string][]string{"status-query": {"live-status"}}, 3, agent)

	rec.ReportOutcome("live-status", false, fmt.Errorf("hiccup"))
	require.Equal(t, 1, rec.Snapshot()["live-status"].ErrorCount)

	env := r.Route(context.Background(), Request{Text: "状态"})

	assert.True(t, env.Success)
	assert.Equal(t, 0, rec.Snapshot()["live-status"].ErrorCount)
}

func TestRouteClassifierErrorStaysSafe(t *testing.T) {
	cls := fixedClassifier{err: commonErrors.NewClassifierError(fmt.Errorf("model offline"))}

	r, _ := newTestRouter(t, cls,
		map[string][]string{"unknown": {"clarify"}}, 3, clarify.NewHandler())

	env := r.Route(context.Background(), Request{Text: "状态"})

	assert.False(t, env.Success)
	assert.Equal(t, intent.IntentUnknown, env.Intent)
	assert.NotEmpty(t, env.Text)
	assert.NotEmpty(t, env.RequestID)
}

func TestRouteClassificationIsRepeatable(t *testing.T) {
	rules := intent.NewRules(config.IntentsConfig{
		Rules: []config.IntentRule{
			{Intent: "status-query", Keywords: []string{"直播", "在播"}},
		},
		Streamers: []string{"Uzi"},
	})
	agent := &stubAgent{id: "live-status", text: "ok"}

	r, _ := newTestRouter(t, rules,
		map[string][]string{
			"status-query": {"live-status"},
			"unknown":      {"clarify"},
		}, 3, agent, clarify.NewHandler())

	first := r.Route(context.Background(), Request{Text: "Uzi直播了吗"})
	require.Equal(t, intent.IntentStatusQuery, first.Intent)
	for i := 0; i < 5; i++ {
		env := r.Route(context.Background(), Request{Text: "Uzi直播了吗"})
		assert.Equal(t, first.Intent, env.Intent)
		assert.Equal(t, first.Confidence, env.Confidence)
	}
}
