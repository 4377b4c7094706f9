package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

// Engine drives one run of the pipeline: it resolves the execution order,
// feeds each stage its prerequisite artifacts, persists the results and
// halts when a stage fails. Dependent stages never run against missing or
// partial inputs.
type Engine struct {
	pipeline    []domain.StageDef
	store       ports.ArtifactStore
	stageRunner *StageRunner
	sink        ports.EventSink
	logger      logx.Logger

	resume      bool
	targetStage string
}

// EngineOption customizes engine behavior.
type EngineOption func(*Engine)

// WithResume makes the engine skip stages that already have committed
// artifacts for the scope.
func WithResume() EngineOption {
	return func(e *Engine) { e.resume = true }
}

// WithTargetStage narrows the run to one stage and its transitive
// prerequisites.
func WithTargetStage(stage string) EngineOption {
	return func(e *Engine) { e.targetStage = stage }
}

// NewEngine creates an engine over the given pipeline topology.
func NewEngine(pipeline []domain.StageDef, store ports.ArtifactStore, stageRunner *StageRunner, sink ports.EventSink, logger logx.Logger, opts ...EngineOption) *Engine {
	if sink == nil {
		sink = ports.NoopSink{}
	}
	e := &Engine{
		pipeline:    pipeline,
		store:       store,
		stageRunner: stageRunner,
		sink:        sink,
		logger:      logger.With("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunSummary is the outcome of one engine run.
type RunSummary struct {
	RunID         string
	ScopeID       string
	Status        RunStatus
	StagesRun     []string
	StagesSkipped []string
	Started       time.Time
	Finished      time.Time
}

// Duration returns the run's wall time.
func (s *RunSummary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Run executes the pipeline for the scope. It returns the summary along
// with the first fatal error; the summary is valid in both cases.
func (e *Engine) Run(ctx context.Context, scope *domain.Scope) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.NewString(),
		ScopeID: scope.ID,
		Status:  StatusRunning,
		Started: time.Now(),
	}

	pipeline := e.pipeline
	if e.targetStage != "" {
		narrowed, err := Prerequisites(pipeline, e.targetStage)
		if err != nil {
			return e.finish(summary, StatusFailed, errors.Wrap(errors.ErrInvalidInput, err.Error()))
		}
		pipeline = narrowed
	}

	order, err := Order(pipeline)
	if err != nil {
		return e.finish(summary, StatusFailed, errors.Wrap(errors.ErrInvalidInput, err.Error()))
	}

	e.logger.Info("run started", "run_id", summary.RunID, "scope", scope.ID, "stages", len(order), "resume", e.resume)
	e.sink.Publish(ports.NewProgressEvent(ports.EventRunStarted, "", "").WithDetail(scope.String()))

	state := NewRunState(e.store, scope.ID)
	artifacts := make(map[string]*domain.Artifact, len(order))

	for _, name := range order {
		if ctx.Err() != nil {
			e.sink.Publish(ports.NewProgressEvent(ports.EventRunAborted, name, ""))
			return e.finish(summary, StatusAborted, errors.Wrap(errors.ErrCanceled, "run aborted"))
		}

		stage, _ := domain.FindStage(pipeline, name)

		if e.resume && state.Completed(name) {
			artifact, err := e.store.Get(scope.ID, name)
			if err != nil {
				return e.finish(summary, StatusFailed, err)
			}
			artifacts[name] = artifact
			summary.StagesSkipped = append(summary.StagesSkipped, name)
			e.logger.Info("stage skipped", "stage", name, "records", len(artifact.Records))
			e.sink.Publish(ports.NewProgressEvent(ports.EventStageSkipped, name, "").WithRecords(len(artifact.Records)))
			continue
		}

		inputs, err := e.gatherInputs(scope.ID, stage, artifacts)
		if err != nil {
			return e.finish(summary, StatusFailed, err)
		}

		e.sink.Publish(ports.NewProgressEvent(ports.EventStageStarted, name, ""))

		artifact, err := e.stageRunner.Run(ctx, stage, scope, inputs)
		if err != nil {
			if errors.Is(err, errors.ErrCanceled) {
				e.sink.Publish(ports.NewProgressEvent(ports.EventRunAborted, name, ""))
				return e.finish(summary, StatusAborted, err)
			}
			e.sink.Publish(ports.NewProgressEvent(ports.EventStageFailed, name, "").WithDetail(err.Error()))
			return e.finish(summary, StatusFailed, err)
		}

		if err := e.store.Put(scope.ID, name, artifact); err != nil {
			return e.finish(summary, StatusFailed, err)
		}

		artifacts[name] = artifact
		summary.StagesRun = append(summary.StagesRun, name)
		e.sink.Publish(ports.NewProgressEvent(ports.EventStageCompleted, name, "").WithRecords(len(artifact.Records)))
	}

	return e.finish(summary, StatusCompleted, nil)
}

// gatherInputs collects the prerequisite artifacts of a stage, falling back
// to the store for stages completed in an earlier run.
func (e *Engine) gatherInputs(scopeID string, stage domain.StageDef, artifacts map[string]*domain.Artifact) (map[string]*domain.Artifact, error) {
	if len(stage.Requires) == 0 {
		return nil, nil
	}
	inputs := make(map[string]*domain.Artifact, len(stage.Requires))
	for _, req := range stage.Requires {
		if a, ok := artifacts[req]; ok {
			inputs[req] = a
			continue
		}
		a, err := e.store.Get(scopeID, req)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrIncompleteRun, "stage %s: missing input %s: %v", stage.Name, req, err)
		}
		inputs[req] = a
	}
	return inputs, nil
}

func (e *Engine) finish(summary *RunSummary, status RunStatus, err error) (*RunSummary, error) {
	summary.Status = status
	summary.Finished = time.Now()

	switch status {
	case StatusCompleted:
		e.logger.Info("run completed", "run_id", summary.RunID, "stages", len(summary.StagesRun), "duration", summary.Duration().String())
		e.sink.Publish(ports.NewProgressEvent(ports.EventRunCompleted, "", ""))
	case StatusAborted:
		e.logger.Warn("run aborted", "run_id", summary.RunID)
	default:
		e.logger.Err(err, "run_id", summary.RunID)
		e.sink.Publish(ports.NewProgressEvent(ports.EventRunFailed, "", "").WithDetail(errString(err)))
	}
	return summary, err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
