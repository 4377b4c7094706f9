package domain

import (
	"sort"
	"time"
)

// Artifact is the immutable output of a completed stage for a scope.
// Once written to the store it is never mutated; re-running a stage
// replaces it atomically. CreatedAt is excluded from the serialized form
// so the committed bytes stay reproducible across re-derivations; the
// store restores it from the file's commit time on load.
type Artifact struct {
	Scope     string        `json:"scope"`
	Stage     string        `json:"stage"`
	CreatedAt time.Time     `json:"-"`
	Records   []Record      `json:"-"`
	Warnings  []ToolWarning `json:"warnings,omitempty"`
	Timings   []ToolTiming  `json:"timings,omitempty"`
}

// ToolWarning records a non-fatal per-tool failure attached to an artifact.
type ToolWarning struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
}

// ToolTiming summarizes one tool invocation that fed the artifact.
type ToolTiming struct {
	Tool       string `json:"tool"`
	DurationMS int64  `json:"duration_ms"`
	Records    int    `json:"records"`
}

// NewArtifact creates an artifact with its records in canonical merge order.
func NewArtifact(scopeID, stage string, records []Record) *Artifact {
	return &Artifact{
		Scope:     scopeID,
		Stage:     stage,
		CreatedAt: time.Now().UTC(),
		Records:   MergeRecords(records),
	}
}

// AddWarning attaches a per-tool warning.
func (a *Artifact) AddWarning(tool, message string) {
	a.Warnings = append(a.Warnings, ToolWarning{Tool: tool, Message: message})
}

// AddTiming attaches a per-tool timing summary.
func (a *Artifact) AddTiming(tool string, d time.Duration, records int) {
	a.Timings = append(a.Timings, ToolTiming{
		Tool:       tool,
		DurationMS: d.Milliseconds(),
		Records:    records,
	})
}

// Values returns the sorted unique record values matching the given types.
// With no types it returns every value.
func (a *Artifact) Values(types ...RecordType) []string {
	want := make(map[RecordType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range a.Records {
		if len(types) > 0 && !want[r.Type] {
			continue
		}
		if seen[r.Value] {
			continue
		}
		seen[r.Value] = true
		out = append(out, r.Value)
	}
	sort.Strings(out)
	return out
}

// CountByType returns record counts grouped by type.
func (a *Artifact) CountByType() map[RecordType]int {
	counts := make(map[RecordType]int)
	for _, r := range a.Records {
		counts[r.Type]++
	}
	return counts
}

// MergeRecords combines record batches into one canonical set: invalid
// records dropped, duplicates collapsed by identity key (first occurrence
// wins, so callers must pass batches in a deterministic order), and the
// result sorted lexicographically by key. Identical inputs always yield a
// byte-identical serialized artifact.
func MergeRecords(batches ...[]Record) []Record {
	seen := make(map[string]bool)
	var out []Record
	for _, batch := range batches {
		for _, r := range batch {
			if !r.IsValid() {
				continue
			}
			key := r.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key() < out[j].Key()
	})
	return out
}
