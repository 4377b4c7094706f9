package ports

import "time"

// EventType labels pipeline lifecycle transitions.
type EventType string

const (
	// Run events
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunFailed    EventType = "run.failed"
	EventRunAborted   EventType = "run.aborted"

	// Stage events
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventStageFailed    EventType = "stage.failed"
	EventStageSkipped   EventType = "stage.skipped"

	// Tool events
	EventToolStarted   EventType = "tool.started"
	EventToolCompleted EventType = "tool.completed"
	EventToolFailed    EventType = "tool.failed"
)

// ProgressEvent is an ephemeral message describing one state transition.
// It is consumed by the progress reporter and not retained.
type ProgressEvent struct {
	Type      EventType
	Stage     string
	Tool      string
	Records   int
	Detail    string // error text for *.failed events
	Timestamp time.Time
}

// NewProgressEvent creates a timestamped event.
func NewProgressEvent(t EventType, stage, tool string) ProgressEvent {
	return ProgressEvent{
		Type:      t,
		Stage:     stage,
		Tool:      tool,
		Timestamp: time.Now(),
	}
}

// WithDetail attaches error or status detail.
func (e ProgressEvent) WithDetail(detail string) ProgressEvent {
	e.Detail = detail
	return e
}

// WithRecords attaches a record count.
func (e ProgressEvent) WithRecords(n int) ProgressEvent {
	e.Records = n
	return e
}

// EventSink receives progress events. Publish must never block the caller:
// implementations buffer or drop rather than applying backpressure to the
// pipeline.
type EventSink interface {
	Publish(event ProgressEvent)
}

// NoopSink discards all events.
type NoopSink struct{}

// Publish implements EventSink.
func (NoopSink) Publish(ProgressEvent) {}
