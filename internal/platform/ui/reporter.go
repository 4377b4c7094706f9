package ui

import (
	"sync"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

const eventBuffer = 256

// Reporter bridges the engine's event stream to a presenter. Publish never
// blocks: events are buffered and dropped under pressure, since progress
// display must not slow the pipeline down.
type Reporter struct {
	presenter Presenter
	events    chan ports.ProgressEvent
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	start      time.Time
	totalUnits int
	doneUnits  int
	stageTools map[string]int
}

// NewReporter starts a reporter over the pipeline's work units: one unit
// per tool invocation plus one per stage commit.
func NewReporter(presenter Presenter, pipeline []domain.StageDef) *Reporter {
	total := 0
	stageTools := make(map[string]int, len(pipeline))
	for _, s := range pipeline {
		total += s.AdapterCount() + 1
		stageTools[s.Name] = s.AdapterCount()
	}

	r := &Reporter{
		presenter:  presenter,
		events:     make(chan ports.ProgressEvent, eventBuffer),
		closing:    make(chan struct{}),
		done:       make(chan struct{}),
		start:      time.Now(),
		totalUnits: total,
		stageTools: stageTools,
	}
	go r.consume()
	return r
}

// Publish implements ports.EventSink. The events channel is never closed,
// so publishing after Close is a silent drop, not a panic.
func (r *Reporter) Publish(event ports.ProgressEvent) {
	select {
	case <-r.closing:
		return
	default:
	}
	select {
	case r.events <- event:
	default:
		// Buffer full: drop rather than stall a tool goroutine.
	}
}

// Close drains pending events and stops the consumer. Safe to call more
// than once; events published afterwards are dropped.
func (r *Reporter) Close() {
	r.closeOnce.Do(func() {
		close(r.closing)
		<-r.done
	})
}

func (r *Reporter) consume() {
	defer close(r.done)

	for {
		select {
		case event := <-r.events:
			r.dispatch(event)
		case <-r.closing:
			// Drain whatever was buffered before shutdown, then stop.
			for {
				select {
				case event := <-r.events:
					r.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Reporter) dispatch(event ports.ProgressEvent) {
	switch event.Type {
	case ports.EventStageStarted:
		r.presenter.StageStarted(event.Stage)
	case ports.EventStageCompleted:
		r.presenter.StageCompleted(event.Stage, event.Records)
		r.advance(1)
	case ports.EventStageSkipped:
		r.presenter.StageSkipped(event.Stage, event.Records)
		// A skipped stage consumes its tools' units too.
		r.advance(1 + r.stageTools[event.Stage])
	case ports.EventStageFailed:
		r.presenter.StageFailed(event.Stage, event.Detail)
	case ports.EventToolStarted:
		r.presenter.ToolStarted(event.Stage, event.Tool)
	case ports.EventToolCompleted:
		r.presenter.ToolCompleted(event.Stage, event.Tool, event.Records)
		r.advance(1)
	case ports.EventToolFailed:
		r.presenter.ToolFailed(event.Stage, event.Tool, event.Detail)
		r.advance(1)
	}
}

// advance moves the overall progress forward and derives the ETA from the
// pace so far.
func (r *Reporter) advance(units int) {
	r.doneUnits += units
	if r.doneUnits > r.totalUnits {
		r.doneUnits = r.totalUnits
	}

	var eta time.Duration
	if r.doneUnits > 0 && r.doneUnits < r.totalUnits {
		elapsed := time.Since(r.start)
		eta = time.Duration(int64(elapsed) / int64(r.doneUnits) * int64(r.totalUnits-r.doneUnits))
	}
	r.presenter.Progress(r.doneUnits, r.totalUnits, eta)
}
