// Package ui renders run progress to the terminal. The engine publishes
// events through the reporter; presenters decide how they look.
package ui

import "time"

// RunInfo describes a run before the first stage starts.
type RunInfo struct {
	ScopeID     string
	Targets     int
	Stages      int
	Tools       int
	Concurrency int
	Resume      bool
	OutputDir   string
}

// RunStats summarizes a finished run.
type RunStats struct {
	Status        string
	StagesRun     int
	StagesSkipped int
	Duration      time.Duration
	RecordsByType map[string]int
}

// Presenter renders run progress. Implementations are driven from the
// reporter's consumer goroutine, one call at a time.
type Presenter interface {
	Start(info RunInfo)

	StageStarted(name string)
	StageCompleted(name string, records int)
	StageSkipped(name string, records int)
	StageFailed(name, detail string)

	ToolStarted(stage, tool string)
	ToolCompleted(stage, tool string, records int)
	ToolFailed(stage, tool, detail string)

	// Progress reports overall completion in work units (tools plus
	// stage commits), with the estimated time remaining.
	Progress(done, total int, eta time.Duration)

	Finish(stats RunStats)
	Close() error
}
