package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"streamscout/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepTask(id string, d time.Duration) Task {
	return Task{
		ID: id,
		Run: func(ctx context.Context) (interface{}, error) {
			select {
			case <-time.After(d):
				return id + "-done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
}

func TestRunIndependentAllSucceed(t *testing.T) {
	pool := NewPool(4, logger.NewTestLogger(t))

	tasks := []Task{
		sleepTask("a", 10*time.Millisecond),
		sleepTask("b", 10*time.Millisecond),
		sleepTask("c", 10*time.Millisecond),
	}

	outcomes := pool.RunIndependent(context.Background(), tasks, time.Second)
	require.Len(t, outcomes, 3)

	// Declaration order, not completion order.
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, outcomes[i].TaskID)
		assert.NoError(t, outcomes[i].Err)
		assert.Equal(t, id+"-done", outcomes[i].Value)
	}
}

func TestRunIndependentWideEnoughPoolRunsInParallel(t *testing.T) {
	pool := NewPool(8, logger.NewNoOpLogger())

	const d = 50 * time.Millisecond
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = sleepTask(fmt.Sprintf("t%d", i), d)
	}

	start := time.Now()
	outcomes := pool.RunIndependent(context.Background(), tasks, time.Second)
	elapsed := time.Since(start)

	require.Len(t, outcomes, 6)
	assert.Less(t, elapsed, 3*d, "W >= N should take roughly one task duration, took %v", elapsed)
}

func TestRunIndependentNarrowPoolSerializesWaves(t *testing.T) {
	pool := NewPool(2, logger.NewNoOpLogger())

	const d = 40 * time.Millisecond
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = sleepTask(fmt.Sprintf("t%d", i), d)
	}

	start := time.Now()
	pool.RunIndependent(context.Background(), tasks, 5*time.Second)
	elapsed := time.Since(start)

	// ceil(6/2) = 3 waves of d each.
	assert.GreaterOrEqual(t, elapsed, 3*d-5*time.Millisecond)
	assert.Less(t, elapsed, 6*d)
}

func TestRunIndependentDeadlineMarksSlowTasks(t *testing.T) {
	pool := NewPool(4, logger.NewNoOpLogger())

	tasks := []Task{
		sleepTask("fast", 10*time.Millisecond),
		sleepTask("slow", 500*time.Millisecond),
	}

	outcomes := pool.RunIndependent(context.Background(), tasks, 60*time.Millisecond)
	require.Len(t, outcomes, 2)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, "fast-done", outcomes[0].Value)

	assert.Error(t, outcomes[1].Err)
	assert.True(t, outcomes[1].TimedOut)
	assert.Nil(t, outcomes[1].Value)
}

func TestRunIndependentFailuresAreData(t *testing.T) {
	pool := NewPool(2, logger.NewNoOpLogger())

	boom := fmt.Errorf("boom")
	tasks := []Task{
		{ID: "ok", Run: func(ctx context.Context) (interface{}, error) { return 42, nil }},
		{ID: "fails", Run: func(ctx context.Context) (interface{}, error) { return nil, boom }},
		{ID: "panics", Run: func(ctx context.Context) (interface{}, error) { panic("ouch") }},
	}

	outcomes := pool.RunIndependent(context.Background(), tasks, time.Second)
	require.Len(t, outcomes, 3)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, boom, outcomes[1].Err)
	assert.ErrorContains(t, outcomes[2].Err, "panicked")
}

func TestRunWithDependenciesOrdersWaves(t *testing.T) {
	pool := NewPool(4, logger.NewTestLogger(t))

	var mu sync.Mutex
	var order []string
	record := func(id string) func(ctx context.Context) (interface{}, error) {
		return func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return id, nil
		}
	}

	specs := map[string]TaskSpec{
		"fetch-status":   {Run: record("fetch-status")},
		"fetch-trending": {Run: record("fetch-trending")},
		"synthesize":     {Run: record("synthesize"), DependsOn: []string{"fetch-status", "fetch-trending"}},
	}

	outcomes, err := pool.RunWithDependencies(context.Background(), specs, time.Second)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, "synthesize", order[2], "dependent task must run after its dependencies")
}

func TestRunWithDependenciesDetectsCycle(t *testing.T) {
	pool := NewPool(2, logger.NewNoOpLogger())

	specs := map[string]TaskSpec{
		"a": {Run: func(ctx context.Context) (interface{}, error) { return nil, nil }, DependsOn: []string{"b"}},
		"b": {Run: func(ctx context.Context) (interface{}, error) { return nil, nil }, DependsOn: []string{"a"}},
	}

	_, err := pool.RunWithDependencies(context.Background(), specs, time.Second)
	assert.ErrorIs(t, err, ErrCircularDependency)
}

func TestRunWithDependenciesUnknownDependency(t *testing.T) {
	pool := NewPool(2, logger.NewNoOpLogger())

	specs := map[string]TaskSpec{
		"a": {Run: func(ctx context.Context) (interface{}, error) { return nil, nil }, DependsOn: []string{"ghost"}},
	}

	_, err := pool.RunWithDependencies(context.Background(), specs, time.Second)
	assert.ErrorContains(t, err, "unknown task")
}

func TestRunWithDependenciesFailedDependencyStillUnblocks(t *testing.T) {
	pool := NewPool(2, logger.NewNoOpLogger())

	specs := map[string]TaskSpec{
		"flaky": {Run: func(ctx context.Context) (interface{}, error) { return nil, fmt.Errorf("down") }},
		"after": {Run: func(ctx context.Context) (interface{}, error) { return "ran", nil }, DependsOn: []string{"flaky"}},
	}

	outcomes, err := pool.RunWithDependencies(context.Background(), specs, time.Second)
	require.NoError(t, err)
	assert.Error(t, outcomes["flaky"].Err)
	assert.Equal(t, "ran", outcomes["after"].Value)
}
