package ui

import "time"

// NoopPresenter renders nothing. Used with --quiet and in tests.
type NoopPresenter struct{}

func (NoopPresenter) Start(RunInfo)                       {}
func (NoopPresenter) StageStarted(string)                 {}
func (NoopPresenter) StageCompleted(string, int)          {}
func (NoopPresenter) StageSkipped(string, int)            {}
func (NoopPresenter) StageFailed(string, string)          {}
func (NoopPresenter) ToolStarted(string, string)          {}
func (NoopPresenter) ToolCompleted(string, string, int)   {}
func (NoopPresenter) ToolFailed(string, string, string)   {}
func (NoopPresenter) Progress(int, int, time.Duration)    {}
func (NoopPresenter) Finish(RunStats)                     {}
func (NoopPresenter) Close() error                        { return nil }
