// Package workerpool bounds the number of simultaneously running external
// tool processes across the whole pipeline.
package workerpool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"reconx/internal/platform/logx"
)

// Task is one unit of external work submitted to the pool.
type Task interface {
	// Name returns the task name for logging and results.
	Name() string

	// Execute runs the task. The context carries pool-wide cancellation.
	Execute(ctx context.Context) error
}

// Result is the outcome of one task. Results are returned in submission
// order regardless of completion order, so callers stay deterministic.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// Pool enforces one global cap on concurrent tasks. A single pool is shared
// by every stage so the cap holds across overlapping fan-outs.
type Pool struct {
	sem     *semaphore.Weighted
	workers int
	logger  logx.Logger
}

// New creates a pool with the given concurrency cap.
func New(workers int, logger logx.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logx.New()
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: workers,
		logger:  logger.With("component", "worker-pool"),
	}
}

// Workers returns the concurrency cap.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes the tasks under the global cap and returns their results in
// submission order. A failing task never affects its siblings; cancellation
// is observed at the dispatch boundary, before a slot is acquired, and
// surfaces as the context error in that task's result.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t Task) {
			defer wg.Done()

			if err := p.sem.Acquire(ctx, 1); err != nil {
				results[idx] = Result{Name: t.Name(), Err: err}
				return
			}
			defer p.sem.Release(1)

			start := time.Now()
			p.logger.Debug("executing task", "task", t.Name())
			err := t.Execute(ctx)
			duration := time.Since(start)

			p.logger.Debug("task finished",
				"task", t.Name(),
				"duration_ms", duration.Milliseconds(),
				"error", err != nil,
			)

			results[idx] = Result{Name: t.Name(), Err: err, Duration: duration}
		}(i, task)
	}

	wg.Wait()
	return results
}
