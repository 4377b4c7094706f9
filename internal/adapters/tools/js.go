package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

func init() {
	register("subjs", newSubjs, ports.AdapterMetadata{
		Description:    "JavaScript file discovery from live endpoints",
		Inputs:         []string{"probe"},
		Produces:       domain.RecordTypeURL,
		DefaultTimeout: 5 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/lc/subjs@latest",
	})
}

type subjsAdapter struct {
	scope *domain.Scope
}

func newSubjs(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &subjsAdapter{}, nil
}

func (a *subjsAdapter) Name() string { return "subjs" }

func (a *subjsAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("subjs")
}

func (a *subjsAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	endpoints := inputs["probe"].Values(domain.RecordTypeEndpoint)
	return ports.Invocation{
		Args:       []string{"-i", "{input}"},
		InputLines: endpoints,
	}, nil
}

func (a *subjsAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	raw := strings.TrimSpace(string(line))
	if !strings.Contains(raw, "://") || !inScope(a.scope, raw) {
		return nil, nil
	}
	r := domain.NewRecord(domain.RecordTypeURL, raw, "subjs")
	r.Meta = map[string]string{"kind": "js"}
	return []domain.Record{r}, nil
}
