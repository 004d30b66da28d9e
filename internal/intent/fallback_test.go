package intent

import (
	"context"
	"fmt"
	"testing"

	"streamscout/internal/common/config"
	"streamscout/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (Result, error) {
	s.calls++
	return s.result, s.err
}

func TestFallbackUsesConfidentPrimary(t *testing.T) {
	primary := &stubClassifier{result: Result{Intent: IntentStatusQuery, Confidence: 0.92}}
	fallback := &stubClassifier{result: Result{Intent: IntentUnknown, Confidence: 0.6}}

	c := WithFallback(primary, fallback, 0.5, logger.NewTestLogger(t))
	result, err := c.Classify(context.Background(), "Uzi直播了吗")

	require.NoError(t, err)
	assert.Equal(t, IntentStatusQuery, result.Intent)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackOnPrimaryError(t *testing.T) {
	primary := &stubClassifier{err: fmt.Errorf("service down")}
	fallback := &stubClassifier{result: Result{Intent: IntentGreeting, Confidence: 0.6}}

	c := WithFallback(primary, fallback, 0.5, logger.NewTestLogger(t))
	result, err := c.Classify(context.Background(), "你好")

	require.NoError(t, err)
	assert.Equal(t, IntentGreeting, result.Intent)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallbackOnLowConfidence(t *testing.T) {
	primary := &stubClassifier{result: Result{Intent: IntentTrendQuery, Confidence: 0.3}}
	fallback := &stubClassifier{result: Result{Intent: IntentStatusQuery, Confidence: 0.6}}

	c := WithFallback(primary, fallback, 0.5, logger.NewNoOpLogger())
	result, err := c.Classify(context.Background(), "直播")

	require.NoError(t, err)
	assert.Equal(t, IntentStatusQuery, result.Intent)
}

func TestFallbackWithNilPrimary(t *testing.T) {
	fallback := &stubClassifier{result: Result{Intent: IntentGreeting, Confidence: 0.6}}

	c := WithFallback(nil, fallback, 0.5, logger.NewNoOpLogger())
	result, err := c.Classify(context.Background(), "你好")

	require.NoError(t, err)
	assert.Equal(t, IntentGreeting, result.Intent)
}

func TestFallbackChainIsIdempotent(t *testing.T) {
	// Primary fails every time; the rule table must give the same answer on
	// every attempt.
	primary := &stubClassifier{err: fmt.Errorf("flaky")}
	rules := NewRules(config.IntentsConfig{
		Rules: []config.IntentRule{
			{Intent: "status-query", Keywords: []string{"直播"}},
		},
		FallbackConfidence: 0.6,
		Streamers:          []string{"Uzi"},
	})

	c := WithFallback(primary, rules, 0.5, logger.NewNoOpLogger())

	first, err := c.Classify(context.Background(), "Uzi直播了吗")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := c.Classify(context.Background(), "Uzi直播了吗")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
