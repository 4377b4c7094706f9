package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
)

// ErrBoom is a generic test error for failure-path assertions.
var ErrBoom = errors.New("boom")

// MockAdapter is a configurable ports.ToolAdapter for engine and stage
// runner tests.
type MockAdapter struct {
	Tool     string
	Meta     ports.AdapterMetadata
	BuildErr error
}

// NewMockAdapter returns an adapter producing host records with defaults
// suitable for most tests.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{
		Tool: name,
		Meta: ports.AdapterMetadata{
			Description:    "mock adapter",
			Produces:       domain.RecordTypeHost,
			DefaultTimeout: 5 * time.Second,
			ParallelSafe:   true,
		},
	}
}

func (m *MockAdapter) Name() string                    { return m.Tool }
func (m *MockAdapter) Metadata() ports.AdapterMetadata { return m.Meta }

func (m *MockAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	if m.BuildErr != nil {
		return ports.Invocation{}, m.BuildErr
	}
	return ports.Invocation{StdinLines: scope.Targets}, nil
}

func (m *MockAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	if len(line) == 0 {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(m.Meta.Produces, string(line), m.Tool)}, nil
}

// ExecutorResult is the canned outcome of one mocked tool execution.
type ExecutorResult struct {
	Records []domain.Record
	Err     error
	Delay   time.Duration
}

// MockExecutor is a ports.ToolExecutor that returns canned results per tool
// name and records the calls it receives.
type MockExecutor struct {
	mu      sync.Mutex
	results map[string]ExecutorResult
	calls   []string
}

// NewMockExecutor creates an executor with no canned results; unknown tools
// succeed with zero records.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{results: make(map[string]ExecutorResult)}
}

// Stub sets the outcome for the named tool.
func (m *MockExecutor) Stub(tool string, res ExecutorResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[tool] = res
}

// StubRecords sets a successful outcome producing host records for values.
func (m *MockExecutor) StubRecords(tool string, typ domain.RecordType, values ...string) {
	records := make([]domain.Record, 0, len(values))
	for _, v := range values {
		records = append(records, domain.NewRecord(typ, v, tool))
	}
	m.Stub(tool, ExecutorResult{Records: records})
}

// Calls returns the tool names executed so far, in call order.
func (m *MockExecutor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Execute implements ports.ToolExecutor.
func (m *MockExecutor) Execute(ctx context.Context, adapter ports.ToolAdapter, scope *domain.Scope, inputs map[string]*domain.Artifact) ([]domain.Record, ports.InvocationSummary, error) {
	m.mu.Lock()
	m.calls = append(m.calls, adapter.Name())
	res := m.results[adapter.Name()]
	m.mu.Unlock()

	start := time.Now()
	if res.Delay > 0 {
		select {
		case <-time.After(res.Delay):
		case <-ctx.Done():
			return nil, ports.InvocationSummary{Tool: adapter.Name(), Start: start, End: time.Now()}, ctx.Err()
		}
	}
	summary := ports.InvocationSummary{
		Tool:    adapter.Name(),
		Start:   start,
		End:     time.Now(),
		Records: len(res.Records),
	}
	if res.Err != nil {
		return nil, summary, res.Err
	}
	return res.Records, summary, nil
}

// MemStore is an in-memory ports.ArtifactStore for tests.
type MemStore struct {
	mu        sync.RWMutex
	artifacts map[string]*domain.Artifact
	PutErr    error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{artifacts: make(map[string]*domain.Artifact)}
}

func memKey(scopeID, stage string) string {
	return scopeID + "/" + stage
}

// Put implements ports.ArtifactStore.
func (s *MemStore) Put(scopeID, stage string, artifact *domain.Artifact) error {
	if s.PutErr != nil {
		return errors.Wrap(errors.ErrStorage, s.PutErr.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[memKey(scopeID, stage)] = artifact
	return nil
}

// Get implements ports.ArtifactStore.
func (s *MemStore) Get(scopeID, stage string) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[memKey(scopeID, stage)]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "artifact %s/%s", scopeID, stage)
	}
	return a, nil
}

// Exists implements ports.ArtifactStore.
func (s *MemStore) Exists(scopeID, stage string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[memKey(scopeID, stage)]
	return ok
}

// Stages implements ports.ArtifactStore.
func (s *MemStore) Stages(scopeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := scopeID + "/"
	var out []string
	for k := range s.artifacts {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, k[len(prefix):])
		}
	}
	sort.Strings(out)
	return out, nil
}

// RecorderSink is a ports.EventSink that retains every published event.
type RecorderSink struct {
	mu     sync.Mutex
	events []ports.ProgressEvent
}

// NewRecorderSink creates an empty recorder.
func NewRecorderSink() *RecorderSink {
	return &RecorderSink{}
}

// Publish implements ports.EventSink.
func (r *RecorderSink) Publish(event ports.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events in publish order.
func (r *RecorderSink) Events() []ports.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

// CountType returns the number of events with the given type.
func (r *RecorderSink) CountType(t ports.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
