// Package tools contains the adapters for the external scanning tools and
// the shared subprocess runner that executes them.
package tools

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

const (
	// fallbackTimeout bounds adapters that declare no default.
	fallbackTimeout = 2 * time.Minute

	// stderrTailLimit caps the stderr carried into error messages.
	stderrTailLimit = 512

	// maxLineSize is the scanner token limit; katana and gau emit very
	// long URL lines.
	maxLineSize = 10 * 1024 * 1024
)

// Runner executes tool adapters as subprocesses. It implements
// ports.ToolExecutor: argv construction via the adapter, temp file
// materialization for {input}/{output} tokens, stdin feeding, timeout
// enforcement and line-by-line parsing of the tool's output.
type Runner struct {
	logger logx.Logger
	cfgs   map[string]ports.AdapterConfig
}

// NewRunner creates a runner with per-tool configuration overrides.
func NewRunner(logger logx.Logger, cfgs map[string]ports.AdapterConfig) *Runner {
	if cfgs == nil {
		cfgs = make(map[string]ports.AdapterConfig)
	}
	return &Runner{logger: logger.With("component", "runner"), cfgs: cfgs}
}

// Execute runs one adapter to completion. Transient execution failures are
// retried per the adapter's configured retry budget; timeouts and parse
// failures are not retried.
func (r *Runner) Execute(ctx context.Context, adapter ports.ToolAdapter, scope *domain.Scope, inputs map[string]*domain.Artifact) ([]domain.Record, ports.InvocationSummary, error) {
	name := adapter.Name()
	cfg := r.cfgs[name]

	inv, err := adapter.BuildArgs(scope, inputs)
	if err != nil {
		return nil, ports.InvocationSummary{Tool: name}, errors.Wrapf(errors.ErrToolExecution, "%s: build args: %v", name, err)
	}
	inv.Args = append(inv.Args, cfg.ExtraArgs...)

	timeout := adapter.Metadata().DefaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	if timeout <= 0 {
		timeout = fallbackTimeout
	}

	binary := name
	if cfg.Path != "" {
		binary = cfg.Path
	}

	var records []domain.Record
	var summary ports.InvocationSummary

	attempt := func() error {
		var err error
		records, summary, err = r.runOnce(ctx, adapter, binary, inv, timeout)
		if err == nil {
			return nil
		}
		// Only transient execution failures are worth a retry.
		if errors.Is(err, errors.ErrToolExecution) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(cfg.Retries)), ctx)

	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, summary, err
	}
	return records, summary, nil
}

func (r *Runner) runOnce(ctx context.Context, adapter ports.ToolAdapter, binary string, inv ports.Invocation, timeout time.Duration) ([]domain.Record, ports.InvocationSummary, error) {
	name := adapter.Name()
	summary := ports.InvocationSummary{Tool: name, Start: time.Now()}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args, cleanup, outputPath, err := r.materialize(inv)
	if err != nil {
		summary.End = time.Now()
		return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: %v", name, err)
	}
	defer cleanup()

	cmd := exec.CommandContext(runCtx, binary, args...)

	if len(inv.StdinLines) > 0 {
		cmd.Stdin = strings.NewReader(strings.Join(inv.StdinLines, "\n") + "\n")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		summary.End = time.Now()
		return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: stdout pipe: %v", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		summary.End = time.Now()
		return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: stderr pipe: %v", name, err)
	}

	r.logger.Debug("starting tool", "tool", name, "binary", binary, "args", strings.Join(args, " "), "timeout", timeout.String())

	if err := cmd.Start(); err != nil {
		summary.End = time.Now()
		return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: start: %v", name, err)
	}

	// Drain stderr in the background so the tool never blocks on a full
	// pipe; only the tail survives into errors.
	var stderrBuf []byte
	var stderrWg sync.WaitGroup
	stderrWg.Add(1)
	go func() {
		defer stderrWg.Done()
		stderrBuf, _ = io.ReadAll(stderr)
	}()

	var records []domain.Record
	var parsedLines, badLines int

	if !inv.UsesOutputFile {
		records, parsedLines, badLines = r.parseStream(adapter, stdout)
	} else {
		// Output-file tools still need stdout drained.
		io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	stderrWg.Wait()
	summary.End = time.Now()
	summary.Stderr = tail(string(stderrBuf), stderrTailLimit)
	if cmd.ProcessState != nil {
		summary.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, summary, errors.Wrapf(errors.ErrToolTimeout, "%s: exceeded %s", name, timeout)
	}
	if ctx.Err() != nil {
		return nil, summary, errors.Wrap(errors.ErrCanceled, name)
	}
	if waitErr != nil {
		return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: exit %d: %s", name, summary.ExitCode, summary.Stderr)
	}

	if inv.UsesOutputFile {
		f, err := os.Open(outputPath)
		if err != nil {
			return nil, summary, errors.Wrapf(errors.ErrToolExecution, "%s: read output file: %v", name, err)
		}
		records, parsedLines, badLines = r.parseStream(adapter, f)
		f.Close()
	}

	// A tool whose entire output was unparseable signals a format drift,
	// not an empty result.
	if parsedLines > 0 && len(records) == 0 && badLines == parsedLines {
		return nil, summary, errors.Wrapf(errors.ErrToolParse, "%s: no line of %d parsed", name, parsedLines)
	}

	summary.Records = len(records)
	r.logger.Debug("tool finished", "tool", name, "records", len(records), "duration", summary.Duration().String())
	return records, summary, nil
}

// parseStream feeds every output line through the adapter's parser.
// Individual bad lines are tolerated; callers decide whether a fully
// unparseable output is fatal.
func (r *Runner) parseStream(adapter ports.ToolAdapter, src io.Reader) (records []domain.Record, lines, bad int) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines++
		parsed, err := adapter.ParseLine([]byte(line))
		if err != nil {
			bad++
			r.logger.Debug("unparseable line", "tool", adapter.Name(), "line", tail(line, 120))
			continue
		}
		records = append(records, parsed...)
	}
	if err := scanner.Err(); err != nil {
		r.logger.Warn("output scan error", "tool", adapter.Name(), "error", err.Error())
	}
	return records, lines, bad
}

// materialize resolves the {input} and {output} tokens into temp files and
// returns the final argv plus a cleanup func.
func (r *Runner) materialize(inv ports.Invocation) (args []string, cleanup func(), outputPath string, err error) {
	var tmpFiles []string
	cleanup = func() {
		for _, f := range tmpFiles {
			os.Remove(f)
		}
	}

	inputPath := ""
	if len(inv.InputLines) > 0 {
		f, err := os.CreateTemp("", "reconx-in-*.txt")
		if err != nil {
			return nil, cleanup, "", err
		}
		tmpFiles = append(tmpFiles, f.Name())
		if _, err := f.WriteString(strings.Join(inv.InputLines, "\n") + "\n"); err != nil {
			f.Close()
			return nil, cleanup, "", err
		}
		if err := f.Close(); err != nil {
			return nil, cleanup, "", err
		}
		inputPath = f.Name()
	}

	if inv.UsesOutputFile {
		f, err := os.CreateTemp("", "reconx-out-*.txt")
		if err != nil {
			return nil, cleanup, "", err
		}
		tmpFiles = append(tmpFiles, f.Name())
		f.Close()
		outputPath = f.Name()
	}

	args = make([]string, 0, len(inv.Args))
	for _, a := range inv.Args {
		a = strings.ReplaceAll(a, "{input}", inputPath)
		a = strings.ReplaceAll(a, "{output}", outputPath)
		args = append(args, a)
	}
	return args, cleanup, outputPath, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
