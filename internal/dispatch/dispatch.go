// Package dispatch executes batches of handler invocations under a bounded
// worker pool with one deadline per batch. Individual task failures are
// data, never control flow; the only fatal condition is a dependency cycle.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"streamscout/internal/common/logger"
)

// ErrCircularDependency aborts a dependency-ordered batch when no task can
// ever become ready.
var ErrCircularDependency = errors.New("circular dependency detected")

// Task is one unit of work. Run must honor ctx cancellation; a task still
// running at the batch deadline is abandoned and its result discarded.
type Task struct {
	ID  string
	Run func(ctx context.Context) (interface{}, error)
}

// TaskSpec describes a node in a dependency-ordered batch.
type TaskSpec struct {
	Run       func(ctx context.Context) (interface{}, error)
	DependsOn []string
}

// Outcome is the per-task result of a batch. Err is set on failure or
// timeout; TimedOut distinguishes deadline abandonment from task errors.
type Outcome struct {
	TaskID   string
	Value    interface{}
	Err      error
	Elapsed  time.Duration
	TimedOut bool
}

// Pool bounds how many tasks run concurrently across one batch.
type Pool struct {
	limit int
	log   logger.Logger
}

func NewPool(limit int, log logger.Logger) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{limit: limit, log: log}
}

// RunIndependent executes tasks concurrently under the pool limit. The whole
// batch shares one deadline; when it passes, unfinished tasks are recorded as
// timed out while finished siblings keep their outcomes. Outcomes are
// returned in task declaration order.
func (p *Pool) RunIndependent(ctx context.Context, tasks []Task, deadline time.Duration) []Outcome {
	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}
	return p.run(ctx, tasks)
}

func (p *Pool) run(ctx context.Context, tasks []Task) []Outcome {
	sem := make(chan struct{}, p.limit)
	outcomes := make([]Outcome, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			start := time.Now()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = Outcome{
					TaskID:   task.ID,
					Err:      ctx.Err(),
					Elapsed:  time.Since(start),
					TimedOut: true,
				}
				return
			}

			outcomes[i] = p.runOne(ctx, task, start)
		}(i, task)
	}
	wg.Wait()

	return outcomes
}

// runOne executes a single task in its own goroutine so a task that ignores
// ctx cannot stall the batch past the deadline.
func (p *Pool) runOne(ctx context.Context, task Task, start time.Time) Outcome {
	type result struct {
		value interface{}
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("task %s panicked: %v", task.ID, r)}
			}
		}()
		value, err := task.Run(ctx)
		ch <- result{value: value, err: err}
	}()

	select {
	case r := <-ch:
		return Outcome{
			TaskID:  task.ID,
			Value:   r.value,
			Err:     r.err,
			Elapsed: time.Since(start),
		}
	case <-ctx.Done():
		p.log.Warn("task abandoned at deadline", map[string]interface{}{
			"task_id":    task.ID,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return Outcome{
			TaskID:   task.ID,
			Err:      ctx.Err(),
			Elapsed:  time.Since(start),
			TimedOut: true,
		}
	}
}

// RunWithDependencies repeatedly executes the set of tasks whose dependencies
// have completed, as concurrent waves under the same pool limit and one
// overall deadline. A failed task still counts as completed so dependents
// can run and degrade on their own terms. If no task is ready while tasks
// remain, the batch aborts with ErrCircularDependency.
func (p *Pool) RunWithDependencies(ctx context.Context, specs map[string]TaskSpec, deadline time.Duration) (map[string]Outcome, error) {
	for id, spec := range specs {
		for _, dep := range spec.DependsOn {
			if _, ok := specs[dep]; !ok {
				return nil, fmt.Errorf("task %s depends on unknown task %s", id, dep)
			}
		}
	}

	if deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	completed := make(map[string]bool, len(specs))
	outcomes := make(map[string]Outcome, len(specs))

	for len(completed) < len(specs) {
		ready := readyTasks(specs, completed)
		if len(ready) == 0 {
			return outcomes, ErrCircularDependency
		}

		tasks := make([]Task, len(ready))
		for i, id := range ready {
			tasks[i] = Task{ID: id, Run: specs[id].Run}
		}

		for _, outcome := range p.run(ctx, tasks) {
			outcomes[outcome.TaskID] = outcome
			completed[outcome.TaskID] = true
		}
	}

	return outcomes, nil
}

// readyTasks returns incomplete tasks whose dependencies are all complete,
// sorted by id for deterministic wave composition.
func readyTasks(specs map[string]TaskSpec, completed map[string]bool) []string {
	var ready []string
	for id, spec := range specs {
		if completed[id] {
			continue
		}
		ok := true
		for _, dep := range spec.DependsOn {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}
