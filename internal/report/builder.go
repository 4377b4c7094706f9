// Package report assembles the final run reports from committed stage
// artifacts. It reads only the store, so reports can be rebuilt at any time
// without re-running tools.
package report

import (
	"sort"
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
	"reconx/internal/platform/logx"
)

// Report is the consolidated view of one scope's artifacts.
type Report struct {
	ScopeID     string    `json:"scope_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Complete is false when at least one pipeline stage has no committed
	// artifact; the report still covers whatever exists.
	Complete      bool     `json:"complete"`
	MissingStages []string `json:"missing_stages,omitempty"`

	Stages   []StageSummary   `json:"stages"`
	Totals   map[string]int   `json:"totals"`
	Findings []FindingSummary `json:"findings,omitempty"`
}

// StageSummary aggregates one stage's artifact.
type StageSummary struct {
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Records   int                  `json:"records"`
	ByType    map[string]int       `json:"by_type,omitempty"`
	Warnings  []domain.ToolWarning `json:"warnings,omitempty"`
	Timings   []domain.ToolTiming  `json:"timings,omitempty"`
}

// FindingSummary is one vulnerability scanner hit.
type FindingSummary struct {
	Template  string `json:"template"`
	Severity  string `json:"severity"`
	Name      string `json:"name,omitempty"`
	MatchedAt string `json:"matched_at"`
}

// Builder assembles reports from the artifact store.
type Builder struct {
	store    ports.ArtifactStore
	pipeline []domain.StageDef
	logger   logx.Logger
}

// NewBuilder creates a report builder over the pipeline topology.
func NewBuilder(store ports.ArtifactStore, pipeline []domain.StageDef, logger logx.Logger) *Builder {
	return &Builder{store: store, pipeline: pipeline, logger: logger.With("component", "report")}
}

// Build assembles the report for a scope. A scope with no artifacts at all
// yields ErrIncompleteRun; partial coverage yields a report flagged
// incomplete.
func (b *Builder) Build(scopeID string) (*Report, error) {
	report := &Report{
		ScopeID:     scopeID,
		GeneratedAt: time.Now().UTC(),
		Totals:      make(map[string]int),
	}

	for _, stage := range b.pipeline {
		artifact, err := b.store.Get(scopeID, stage.Name)
		if err != nil {
			if errors.IsNotFound(err) {
				report.MissingStages = append(report.MissingStages, stage.Name)
				continue
			}
			return nil, err
		}

		summary := StageSummary{
			Name:      stage.Name,
			CreatedAt: artifact.CreatedAt,
			Records:   len(artifact.Records),
			ByType:    make(map[string]int),
			Warnings:  artifact.Warnings,
			Timings:   artifact.Timings,
		}
		for t, n := range artifact.CountByType() {
			summary.ByType[t.String()] = n
			report.Totals[t.String()] += n
		}
		report.Stages = append(report.Stages, summary)

		if stage.Name == "vulns" {
			report.Findings = collectFindings(artifact)
		}
	}

	if len(report.Stages) == 0 {
		return nil, errors.Wrapf(errors.ErrIncompleteRun, "no artifacts for scope %s", scopeID)
	}

	report.Complete = len(report.MissingStages) == 0
	if !report.Complete {
		b.logger.Warn("report covers a partial run",
			"scope", scopeID,
			"missing", strings.Join(report.MissingStages, ","),
		)
	}
	return report, nil
}

// severityRank orders findings most severe first.
var severityRank = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
	"info":     4,
}

func collectFindings(artifact *domain.Artifact) []FindingSummary {
	var findings []FindingSummary
	for _, r := range artifact.Records {
		if r.Type != domain.RecordTypeFinding {
			continue
		}
		template, matchedAt, _ := strings.Cut(r.Value, "@")
		findings = append(findings, FindingSummary{
			Template:  template,
			Severity:  strings.ToLower(r.Meta["severity"]),
			Name:      r.Meta["name"],
			MatchedAt: matchedAt,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		ri, iOK := severityRank[findings[i].Severity]
		rj, jOK := severityRank[findings[j].Severity]
		if !iOK {
			ri = len(severityRank)
		}
		if !jOK {
			rj = len(severityRank)
		}
		if ri != rj {
			return ri < rj
		}
		return findings[i].Template < findings[j].Template
	})
	return findings
}
