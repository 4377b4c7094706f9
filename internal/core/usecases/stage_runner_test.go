package usecases

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
	"reconx/internal/platform/workerpool"
	"reconx/internal/testutil"
)

// registryWithMeta registers mock adapters with explicit metadata, for
// tests exercising the ParallelSafe and Inputs declarations.
func registryWithMeta(t *testing.T, metas map[string]ports.AdapterMetadata) *registry.AdapterRegistry {
	t.Helper()
	reg := registry.NewAdapterRegistry(logx.NewSilent())
	for name, meta := range metas {
		name, meta := name, meta
		err := reg.Register(name, func(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
			a := testutil.NewMockAdapter(name)
			a.Meta = meta
			return a, nil
		}, meta)
		testutil.AssertNoError(t, err, "register "+name)
	}
	return reg
}

// overlapExecutor tracks how many executions run at once.
type overlapExecutor struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	delay   time.Duration
}

func (e *overlapExecutor) Execute(ctx context.Context, adapter ports.ToolAdapter, scope *domain.Scope, inputs map[string]*domain.Artifact) ([]domain.Record, ports.InvocationSummary, error) {
	e.mu.Lock()
	e.active++
	if e.active > e.maxSeen {
		e.maxSeen = e.active
	}
	e.mu.Unlock()

	time.Sleep(e.delay)

	e.mu.Lock()
	e.active--
	e.mu.Unlock()

	r := domain.NewRecord(domain.RecordTypeHost, adapter.Name()+".example.com", adapter.Name())
	return []domain.Record{r}, ports.InvocationSummary{Tool: adapter.Name()}, nil
}

func TestStageRunnerMergesInDeclaredOrder(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	executor := testutil.NewMockExecutor()
	// t2 finishes first but t1 is declared first; t1's copy of the shared
	// value must win the dedup.
	r1 := domain.NewRecord(domain.RecordTypeHost, "shared.example.com", "t1")
	r2 := domain.NewRecord(domain.RecordTypeHost, "shared.example.com", "t2")
	executor.Stub("t1", testutil.ExecutorResult{Records: []domain.Record{r1}, Delay: 50 * time.Millisecond})
	executor.Stub("t2", testutil.ExecutorResult{Records: []domain.Record{r2}})

	logger := logx.NewSilent()
	runner := NewStageRunner(executor, testRegistry(t, "t1", "t2"),
		workerpool.New(2, logger), nil, logger, nil)

	stage := domain.StageDef{Name: "alpha", Adapters: []string{"t1", "t2"}, Merge: domain.MergeUnion}

	for i := 0; i < 3; i++ {
		artifact, err := runner.Run(context.Background(), stage, scope, nil)
		testutil.AssertNoError(t, err, "run")
		testutil.AssertLen(t, len(artifact.Records), 1, "deduplicated")
		testutil.AssertEqual(t, artifact.Records[0].Source, "t1", "declared order wins, not completion order")
	}
}

func TestStageRunnerUnknownAdapter(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	logger := logx.NewSilent()
	runner := NewStageRunner(testutil.NewMockExecutor(), testRegistry(t, "t1"),
		workerpool.New(2, logger), nil, logger, nil)

	stage := domain.StageDef{Name: "alpha", Adapters: []string{"ghost"}}

	_, err = runner.Run(context.Background(), stage, scope, nil)
	testutil.AssertError(t, err, "unknown adapter")
	testutil.AssertTrue(t, errors.IsStageFailed(err), "wraps ErrStageFailed")
}

func TestStageRunnerTimingsPerTool(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	executor := testutil.NewMockExecutor()
	executor.StubRecords("t1", domain.RecordTypeHost, "a.example.com")
	executor.StubRecords("t2", domain.RecordTypeHost, "b.example.com")

	logger := logx.NewSilent()
	runner := NewStageRunner(executor, testRegistry(t, "t1", "t2"),
		workerpool.New(2, logger), nil, logger, nil)

	stage := domain.StageDef{Name: "alpha", Adapters: []string{"t1", "t2"}, Merge: domain.MergeUnion}
	artifact, err := runner.Run(context.Background(), stage, scope, nil)
	testutil.AssertNoError(t, err, "run")

	testutil.AssertLen(t, len(artifact.Timings), 2, "one timing per successful tool")
	testutil.AssertEqual(t, artifact.Timings[0].Tool, "t1", "declared order")
	testutil.AssertEqual(t, artifact.Timings[0].Records, 1, "per-tool record count")
}

func TestStageRunnerSerializesUnsafeAdapters(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	unsafe := ports.AdapterMetadata{Produces: domain.RecordTypeHost, ParallelSafe: false}
	reg := registryWithMeta(t, map[string]ports.AdapterMetadata{
		"t1": unsafe,
		"t2": unsafe,
	})

	executor := &overlapExecutor{delay: 30 * time.Millisecond}
	logger := logx.NewSilent()
	runner := NewStageRunner(executor, reg, workerpool.New(4, logger), nil, logger, nil)

	stage := domain.StageDef{Name: "alpha", Adapters: []string{"t1", "t2"}, Merge: domain.MergeUnion}
	artifact, err := runner.Run(context.Background(), stage, scope, nil)
	testutil.AssertNoError(t, err, "run")

	testutil.AssertEqual(t, executor.maxSeen, 1, "unsafe adapters never overlap")
	testutil.AssertLen(t, len(artifact.Records), 2, "both adapters still ran")
}

func TestStageRunnerPassthroughRejectsFanOut(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	executor := testutil.NewMockExecutor()
	logger := logx.NewSilent()
	runner := NewStageRunner(executor, testRegistry(t, "t1", "t2"),
		workerpool.New(2, logger), nil, logger, nil)

	stage := domain.StageDef{Name: "alpha", Adapters: []string{"t1", "t2"}, Merge: domain.MergePassthrough}
	_, err = runner.Run(context.Background(), stage, scope, nil)

	testutil.AssertError(t, err, "passthrough with two adapters")
	testutil.AssertTrue(t, errors.IsStageFailed(err), "wraps ErrStageFailed")
	testutil.AssertLen(t, len(executor.Calls()), 0, "nothing executed")
}

func TestStageRunnerMissingDeclaredInputIsIsolated(t *testing.T) {
	scope, err := domain.NewScope([]string{"example.com"}, nil)
	testutil.AssertNoError(t, err, "scope")

	reg := registryWithMeta(t, map[string]ports.AdapterMetadata{
		"needy": {Produces: domain.RecordTypeHost, ParallelSafe: true, Inputs: []string{"resolve"}},
		"plain": {Produces: domain.RecordTypeHost, ParallelSafe: true},
	})

	executor := testutil.NewMockExecutor()
	executor.StubRecords("plain", domain.RecordTypeHost, "a.example.com")

	logger := logx.NewSilent()
	runner := NewStageRunner(executor, reg, workerpool.New(2, logger), nil, logger, nil)

	// No prior artifacts: the adapter declaring an input fails alone.
	stage := domain.StageDef{Name: "alpha", Adapters: []string{"needy", "plain"}, Merge: domain.MergeUnion}
	artifact, err := runner.Run(context.Background(), stage, scope, nil)
	testutil.AssertNoError(t, err, "stage commits on the surviving adapter")

	testutil.AssertLen(t, len(artifact.Records), 1, "records from the surviving adapter")
	testutil.AssertLen(t, len(artifact.Warnings), 1, "missing input recorded as warning")
	testutil.AssertEqual(t, artifact.Warnings[0].Tool, "needy", "warning names the adapter")
	testutil.AssertTrue(t, strings.Contains(artifact.Warnings[0].Message, "resolve"), "warning names the missing stage")

	calls := executor.Calls()
	testutil.AssertLen(t, len(calls), 1, "the failed adapter never reached the executor")
	testutil.AssertEqual(t, calls[0], "plain", "only the satisfied adapter ran")
}
