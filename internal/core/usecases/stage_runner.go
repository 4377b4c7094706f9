package usecases

import (
	"context"
	"strings"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
	"reconx/internal/platform/workerpool"
)

// StageRunner fans one stage out to its tool adapters, bounded by the
// shared worker pool, and folds their outputs into a single artifact.
type StageRunner struct {
	executor ports.ToolExecutor
	registry *registry.AdapterRegistry
	pool     *workerpool.Pool
	sink     ports.EventSink
	logger   logx.Logger
	cfgs     map[string]ports.AdapterConfig
}

// NewStageRunner wires the stage runner's collaborators.
func NewStageRunner(executor ports.ToolExecutor, reg *registry.AdapterRegistry, pool *workerpool.Pool, sink ports.EventSink, logger logx.Logger, cfgs map[string]ports.AdapterConfig) *StageRunner {
	if sink == nil {
		sink = ports.NoopSink{}
	}
	return &StageRunner{
		executor: executor,
		registry: reg,
		pool:     pool,
		sink:     sink,
		logger:   logger.With("component", "stage-runner"),
		cfgs:     cfgs,
	}
}

// toolTask adapts one tool execution to the worker pool. Records and the
// invocation summary are captured on the task for collection after Run.
type toolTask struct {
	adapter  ports.ToolAdapter
	executor ports.ToolExecutor
	scope    *domain.Scope
	inputs   map[string]*domain.Artifact
	inputErr error
	sink     ports.EventSink
	stage    string

	records []domain.Record
	summary ports.InvocationSummary
}

func (t *toolTask) Name() string { return t.adapter.Name() }

func (t *toolTask) Execute(ctx context.Context) error {
	t.sink.Publish(ports.NewProgressEvent(ports.EventToolStarted, t.stage, t.adapter.Name()))

	if t.inputErr != nil {
		t.sink.Publish(ports.NewProgressEvent(ports.EventToolFailed, t.stage, t.adapter.Name()).WithDetail(t.inputErr.Error()))
		return t.inputErr
	}

	records, summary, err := t.executor.Execute(ctx, t.adapter, t.scope, t.inputs)
	t.records = records
	t.summary = summary

	if err != nil {
		t.sink.Publish(ports.NewProgressEvent(ports.EventToolFailed, t.stage, t.adapter.Name()).WithDetail(err.Error()))
		return err
	}
	t.sink.Publish(ports.NewProgressEvent(ports.EventToolCompleted, t.stage, t.adapter.Name()).WithRecords(len(records)))
	return nil
}

// Run executes one stage. A tool failure is isolated: as long as one
// adapter succeeds the stage commits, carrying the failures as warnings.
// Only when every adapter fails does the stage fail.
func (s *StageRunner) Run(ctx context.Context, stage domain.StageDef, scope *domain.Scope, inputs map[string]*domain.Artifact) (*domain.Artifact, error) {
	if stage.Merge == domain.MergePassthrough && len(stage.Adapters) > 1 {
		return nil, errors.Wrapf(errors.ErrStageFailed,
			"stage %s: passthrough merge declared with %d adapters", stage.Name, len(stage.Adapters))
	}

	adapters, err := s.registry.Build(stage.Adapters, s.cfgs)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStageFailed, "stage %s: %v", stage.Name, err)
	}

	toolTasks := make([]*toolTask, 0, len(adapters))
	for _, adapter := range adapters {
		filtered, inputErr := adapterInputs(adapter.Metadata(), inputs)
		task := &toolTask{
			adapter:  adapter,
			executor: s.executor,
			scope:    scope,
			inputs:   filtered,
			inputErr: inputErr,
			sink:     s.sink,
			stage:    stage.Name,
		}
		toolTasks = append(toolTasks, task)
	}

	results := s.dispatch(ctx, toolTasks)
	if ctx.Err() != nil {
		return nil, errors.Wrap(errors.ErrCanceled, "stage "+stage.Name)
	}

	// Batches are collected in declared adapter order, never completion
	// order, so the merged artifact is deterministic.
	var batches [][]domain.Record
	var failures []string
	succeeded := 0
	for i, res := range results {
		task := toolTasks[i]
		if res.Err != nil {
			failures = append(failures, task.adapter.Name()+": "+res.Err.Error())
			continue
		}
		succeeded++
		batches = append(batches, task.records)
	}

	if succeeded == 0 {
		return nil, errors.Wrapf(errors.ErrStageFailed, "stage %s: all tools failed: %s",
			stage.Name, strings.Join(failures, "; "))
	}

	var merged []domain.Record
	switch stage.Merge {
	case domain.MergePassthrough:
		// Single adapter: its batch passes through without cross-tool dedup.
		if len(batches) > 0 {
			merged = batches[0]
		}
	default:
		merged = domain.MergeRecords(batches...)
	}
	artifact := domain.NewArtifact(scope.ID, stage.Name, merged)
	for i, res := range results {
		task := toolTasks[i]
		if res.Err != nil {
			artifact.AddWarning(task.adapter.Name(), res.Err.Error())
			s.logger.Warn("tool failed", "stage", stage.Name, "tool", task.adapter.Name(), "error", res.Err.Error())
			continue
		}
		artifact.AddTiming(task.adapter.Name(), res.Duration, len(task.records))
	}

	s.logger.Info("stage finished",
		"stage", stage.Name,
		"records", len(artifact.Records),
		"tools_ok", succeeded,
		"tools_failed", len(failures),
	)
	return artifact, nil
}

// dispatch runs the parallel-safe tasks concurrently and the rest one at a
// time, all under the shared pool's global cap. Results come back in
// declared adapter order regardless of scheduling.
func (s *StageRunner) dispatch(ctx context.Context, tasks []*toolTask) []workerpool.Result {
	results := make([]workerpool.Result, len(tasks))

	var parallel []workerpool.Task
	var parallelIdx, serialIdx []int
	for i, task := range tasks {
		if task.adapter.Metadata().ParallelSafe {
			parallel = append(parallel, task)
			parallelIdx = append(parallelIdx, i)
			continue
		}
		serialIdx = append(serialIdx, i)
	}

	for j, res := range s.pool.Run(ctx, parallel) {
		results[parallelIdx[j]] = res
	}
	for _, i := range serialIdx {
		if ctx.Err() != nil {
			break
		}
		res := s.pool.Run(ctx, []workerpool.Task{tasks[i]})
		results[i] = res[0]
	}
	return results
}

// adapterInputs narrows the stage inputs to the adapter's declared set, so
// BuildArgs only ever sees the stages it asked for. A declared input with
// no artifact fails that adapter alone, not its siblings.
func adapterInputs(meta ports.AdapterMetadata, inputs map[string]*domain.Artifact) (map[string]*domain.Artifact, error) {
	if len(meta.Inputs) == 0 {
		return nil, nil
	}
	filtered := make(map[string]*domain.Artifact, len(meta.Inputs))
	for _, name := range meta.Inputs {
		artifact, ok := inputs[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrIncompleteRun, "missing input artifact %s", name)
		}
		filtered[name] = artifact
	}
	return filtered, nil
}
