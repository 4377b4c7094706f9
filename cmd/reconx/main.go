package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"reconx/internal/adapters/tools"
	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/core/usecases"
	"reconx/internal/platform/config"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
	"reconx/internal/platform/ui"
	"reconx/internal/platform/workerpool"
	"reconx/internal/report"
	"reconx/internal/store"
)

var (
	// Set via -ldflags at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitStorage = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	if cfg.PrintVersion {
		fmt.Printf("reconx %s (commit %s, built %s)\n", version, commit, date)
		return exitOK
	}

	logger := logx.New()
	if cfg.Quiet {
		logger.SetLevel(logx.LevelWarn)
	}

	if cfg.Doctor {
		return runDoctor(cfg)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	artifacts, err := store.NewFSStore(cfg.OutputDir, logger)
	if err != nil {
		logger.Err(err, "phase", "store")
		return exitStorage
	}

	pipeline := domain.DefaultPipeline()

	if cfg.ReportOnly {
		return runReportOnly(cfg, artifacts, pipeline, logger)
	}

	scope, err := domain.LoadScope(cfg.ScopeFile, cfg.Exclude)
	if err != nil {
		logger.Err(err, "phase", "scope")
		return exitUsage
	}

	logger.Info("reconx starting",
		"version", version,
		"scope", scope.ID,
		"targets", len(scope.Targets),
		"concurrency", cfg.Concurrency,
		"resume", cfg.Resume,
	)

	ctx, cancel := rootContextWithSignals()
	defer cancel()

	var presenter ui.Presenter = ui.NoopPresenter{}
	if !cfg.Quiet {
		presenter = ui.NewPTermPresenter()
	}
	reporter := ui.NewReporter(presenter, pipeline)
	defer reporter.Close()

	presenter.Start(ui.RunInfo{
		ScopeID:     scope.ID,
		Targets:     len(scope.Targets),
		Stages:      len(pipeline),
		Tools:       countTools(pipeline),
		Concurrency: cfg.Concurrency,
		Resume:      cfg.Resume,
		OutputDir:   cfg.OutputDir,
	})

	runner := usecases.NewStageRunner(
		tools.NewRunner(logger, cfg.Tools),
		registry.Global(),
		workerpool.New(cfg.Concurrency, logger),
		reporter,
		logger,
		cfg.Tools,
	)

	var opts []usecases.EngineOption
	if cfg.Resume {
		opts = append(opts, usecases.WithResume())
	}
	if cfg.Stage != "" {
		opts = append(opts, usecases.WithTargetStage(cfg.Stage))
	}

	engine := usecases.NewEngine(pipeline, artifacts, runner, reporter, logger, opts...)
	summary, runErr := engine.Run(ctx, scope)

	reporter.Close()
	presenter.Finish(runStats(summary, artifacts, scope.ID))
	presenter.Close()

	// Reports cover whatever committed, even after a failed run.
	if err := writeReports(cfg, artifacts, pipeline, scope.ID, logger); err != nil && runErr == nil {
		runErr = err
	}

	return exitCode(runErr, logger)
}

func runDoctor(cfg config.Config) int {
	results := tools.Doctor(registry.Global(), cfg.Tools)

	missing := 0
	for _, res := range results {
		if res.Available {
			fmt.Printf("ok       %-14s %s\n", res.Tool, res.Path)
			continue
		}
		missing++
		fmt.Printf("missing  %-14s install: %s\n", res.Tool, res.InstallHint)
	}

	fmt.Printf("\n%d/%d tools available\n", len(results)-missing, len(results))
	if missing > 0 {
		return exitFailed
	}
	return exitOK
}

func runReportOnly(cfg config.Config, artifacts ports.ArtifactStore, pipeline []domain.StageDef, logger logx.Logger) int {
	scopeID, err := resolveScopeID(cfg, logger)
	if err != nil {
		logger.Err(err, "phase", "report")
		return exitUsage
	}
	if err := writeReports(cfg, artifacts, pipeline, scopeID, logger); err != nil {
		return exitCode(err, logger)
	}
	return exitOK
}

// resolveScopeID derives the scope ID from the scope file when given, or
// from a single existing scope directory otherwise.
func resolveScopeID(cfg config.Config, logger logx.Logger) (string, error) {
	if cfg.ScopeFile != "" {
		scope, err := domain.LoadScope(cfg.ScopeFile, cfg.Exclude)
		if err != nil {
			return "", err
		}
		return scope.ID, nil
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidInput, "read output dir %s: %v", cfg.OutputDir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return "", errors.Wrapf(errors.ErrInvalidInput,
			"%d scopes in %s, pass --scope to pick one", len(dirs), cfg.OutputDir)
	}
	return dirs[0], nil
}

func writeReports(cfg config.Config, artifacts ports.ArtifactStore, pipeline []domain.StageDef, scopeID string, logger logx.Logger) error {
	builder := report.NewBuilder(artifacts, pipeline, logger)
	rep, err := builder.Build(scopeID)
	if err != nil {
		return err
	}

	dir := filepath.Join(cfg.OutputDir, scopeID)

	jsonFile, err := os.Create(filepath.Join(dir, "report.json"))
	if err != nil {
		return errors.Wrapf(errors.ErrStorage, "create report.json: %v", err)
	}
	defer jsonFile.Close()
	if err := report.WriteJSON(jsonFile, rep); err != nil {
		return errors.Wrapf(errors.ErrStorage, "write report.json: %v", err)
	}

	mdFile, err := os.Create(filepath.Join(dir, "report.md"))
	if err != nil {
		return errors.Wrapf(errors.ErrStorage, "create report.md: %v", err)
	}
	defer mdFile.Close()
	if err := report.WriteMarkdown(mdFile, rep); err != nil {
		return errors.Wrapf(errors.ErrStorage, "write report.md: %v", err)
	}

	logger.Info("reports written", "dir", dir, "complete", rep.Complete)
	return nil
}

func runStats(summary *usecases.RunSummary, artifacts ports.ArtifactStore, scopeID string) ui.RunStats {
	stats := ui.RunStats{
		Status:        string(summary.Status),
		StagesRun:     len(summary.StagesRun),
		StagesSkipped: len(summary.StagesSkipped),
		Duration:      summary.Duration(),
		RecordsByType: make(map[string]int),
	}

	stages, err := artifacts.Stages(scopeID)
	if err != nil {
		return stats
	}
	for _, stage := range stages {
		artifact, err := artifacts.Get(scopeID, stage)
		if err != nil {
			continue
		}
		for t, n := range artifact.CountByType() {
			stats.RecordsByType[t.String()] += n
		}
	}
	return stats
}

func exitCode(err error, logger logx.Logger) int {
	if err == nil {
		return exitOK
	}
	logger.Err(err)

	switch {
	case errors.IsInvalidInput(err):
		return exitUsage
	case errors.IsStorage(err):
		return exitStorage
	default:
		return exitFailed
	}
}

func countTools(pipeline []domain.StageDef) int {
	n := 0
	for _, s := range pipeline {
		n += s.AdapterCount()
	}
	return n
}

// rootContextWithSignals cancels the run on SIGINT or SIGTERM so artifact
// writes in flight can finish atomically.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		baseCancel()
	}
	return base, cleanup
}
