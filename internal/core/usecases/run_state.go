package usecases

import (
	"reconx/internal/core/ports"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusAborted   RunStatus = "aborted"
)

// RunState answers resume questions from the artifact store. There is no
// separate state file: a committed artifact is the proof a stage finished,
// and a missing one means the stage never completed. Interrupted stages
// leave nothing behind because artifact writes are atomic.
type RunState struct {
	store   ports.ArtifactStore
	scopeID string
}

// NewRunState creates a state view for one scope.
func NewRunState(store ports.ArtifactStore, scopeID string) *RunState {
	return &RunState{store: store, scopeID: scopeID}
}

// Completed reports whether a stage has a committed artifact.
func (r *RunState) Completed(stage string) bool {
	return r.store.Exists(r.scopeID, stage)
}

// CompletedStages lists the stages with committed artifacts, sorted.
func (r *RunState) CompletedStages() ([]string, error) {
	return r.store.Stages(r.scopeID)
}
