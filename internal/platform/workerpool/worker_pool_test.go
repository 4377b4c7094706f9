package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"reconx/internal/platform/logx"
	"reconx/internal/testutil"
)

type fakeTask struct {
	name    string
	err     error
	delay   time.Duration
	started func()
}

func (f *fakeTask) Name() string { return f.name }

func (f *fakeTask) Execute(ctx context.Context) error {
	if f.started != nil {
		f.started()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestPoolRunReturnsResultsInSubmissionOrder(t *testing.T) {
	pool := New(2, logx.NewSilent())

	tasks := []Task{
		&fakeTask{name: "slow", delay: 50 * time.Millisecond},
		&fakeTask{name: "fast"},
		&fakeTask{name: "medium", delay: 10 * time.Millisecond},
	}

	results := pool.Run(context.Background(), tasks)

	testutil.AssertLen(t, len(results), 3, "one result per task")
	testutil.AssertEqual(t, results[0].Name, "slow", "submission order kept")
	testutil.AssertEqual(t, results[1].Name, "fast", "submission order kept")
	testutil.AssertEqual(t, results[2].Name, "medium", "submission order kept")
}

func TestPoolIsolatesFailures(t *testing.T) {
	pool := New(4, logx.NewSilent())
	boom := testutil.ErrBoom

	results := pool.Run(context.Background(), []Task{
		&fakeTask{name: "ok1"},
		&fakeTask{name: "bad", err: boom},
		&fakeTask{name: "ok2"},
	})

	testutil.AssertNil(t, results[0].Err, "sibling unaffected")
	testutil.AssertEqual(t, results[1].Err, boom, "failure reported")
	testutil.AssertNil(t, results[2].Err, "sibling unaffected")
}

func TestPoolEnforcesConcurrencyCap(t *testing.T) {
	pool := New(2, logx.NewSilent())

	var running, peak int32
	var mu sync.Mutex

	mark := func() {
		n := atomic.AddInt32(&running, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
	}

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = &fakeTask{name: "t", started: mark}
	}

	pool.Run(context.Background(), tasks)

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("concurrency cap violated: peak %d > 2", peak)
	}
}

func TestPoolObservesCancellationAtDispatch(t *testing.T) {
	pool := New(1, logx.NewSilent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.Run(ctx, []Task{&fakeTask{name: "never"}})

	testutil.AssertError(t, results[0].Err, "canceled before dispatch")
	testutil.AssertEqual(t, results[0].Err, context.Canceled, "context error surfaced")
}
