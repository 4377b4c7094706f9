// Package ports defines the interfaces between the pipeline engine and its
// collaborators: tool adapters, the artifact store and progress consumers.
package ports

import (
	"context"
	"time"

	"reconx/internal/core/domain"
)

// ToolAdapter is the primary port for external scanning tools. The engine
// never special-cases a tool: every integration implements this interface
// and is driven through the shared subprocess runner.
type ToolAdapter interface {
	// Name returns the unique adapter name (e.g. "subfinder", "httpx").
	Name() string

	// Metadata returns the adapter's static declaration: inputs, output
	// record type, timeout and concurrency safety.
	Metadata() AdapterMetadata

	// BuildArgs translates the scope and prior-stage artifacts into the
	// tool's invocation. Inputs are keyed by stage name and contain only
	// the stages declared in Metadata().Inputs.
	BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (Invocation, error)

	// ParseLine translates one line of the tool's native output into
	// records. Returning no records for a line is not an error.
	ParseLine(line []byte) ([]domain.Record, error)
}

// AdapterMetadata declares an adapter's contract with the pipeline.
type AdapterMetadata struct {
	// Description is a short human-readable summary.
	Description string

	// Inputs lists the stage names whose artifacts the adapter consumes.
	// Empty means the adapter runs from the scope alone.
	Inputs []string

	// Produces is the primary record type the adapter emits.
	Produces domain.RecordType

	// DefaultTimeout bounds one invocation of the tool.
	DefaultTimeout time.Duration

	// ParallelSafe reports whether the adapter may run concurrently with
	// sibling adapters of the same stage. True for independent processes.
	ParallelSafe bool

	// InstallHint tells the operator how to obtain the binary.
	InstallHint string
}

// Invocation describes one subprocess execution as built by an adapter.
// The runner owns materializing input/output files and feeding stdin.
type Invocation struct {
	// Args is the argv after the binary name. The tokens "{input}" and
	// "{output}" are replaced by the runner with temp file paths.
	Args []string

	// StdinLines, when non-empty, are written newline-separated to the
	// tool's stdin.
	StdinLines []string

	// InputLines, when non-empty, are written to a temp file whose path
	// substitutes the "{input}" token in Args.
	InputLines []string

	// UsesOutputFile marks tools that write results to a path instead of
	// stdout. The runner substitutes "{output}" in Args and feeds the
	// file's lines through ParseLine after the process exits.
	UsesOutputFile bool
}

// InvocationSummary is the surviving trace of one tool execution, folded
// into the stage artifact's metadata.
type InvocationSummary struct {
	Tool     string
	Start    time.Time
	End      time.Time
	ExitCode int
	Records  int
	Stderr   string // tail only
}

// Duration returns the invocation's wall time.
func (s InvocationSummary) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// ToolExecutor runs one adapter's external process end to end: argv build,
// subprocess execution under the adapter's timeout, output parsing. The
// stage runner depends on this port so execution can be mocked in tests.
type ToolExecutor interface {
	Execute(ctx context.Context, adapter ToolAdapter, scope *domain.Scope, inputs map[string]*domain.Artifact) ([]domain.Record, InvocationSummary, error)
}

// AdapterFactory creates a configured ToolAdapter instance.
type AdapterFactory func(cfg AdapterConfig) (ToolAdapter, error)

// AdapterConfig carries per-tool configuration overrides.
type AdapterConfig struct {
	// Path overrides the binary path (default: adapter name, resolved in PATH).
	Path string

	// Timeout overrides the adapter's default timeout when positive.
	Timeout time.Duration

	// ExtraArgs are appended to the built argv.
	ExtraArgs []string

	// Retries is the number of re-attempts for transient execution failures.
	Retries int

	// Custom holds adapter-specific settings (e.g. nuclei severities).
	Custom map[string]string
}

// DefaultAdapterConfig returns an empty override set.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{Custom: make(map[string]string)}
}
