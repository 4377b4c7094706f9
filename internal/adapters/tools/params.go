package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

// Parameter mining adapters. Both emit parameter records in host:param
// form: paramspider mines archived URLs, arjun brute-forces live endpoints
// and writes its results to a file instead of stdout.

func init() {
	register("paramspider", newParamspider, ports.AdapterMetadata{
		Description:    "Parameter mining from archived URLs",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypeParameter,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "pip install paramspider",
	})
	register("arjun", newArjun, ports.AdapterMetadata{
		Description:    "Active HTTP parameter discovery",
		Inputs:         []string{"probe"},
		Produces:       domain.RecordTypeParameter,
		DefaultTimeout: 15 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "pip install arjun",
	})
}

// paramRecords expands one URL into parameter records, one per query key.
func paramRecords(raw, source string) []domain.Record {
	host := hostOf(raw)
	if host == "" {
		return nil
	}
	var out []domain.Record
	for _, name := range queryParams(raw) {
		r := domain.NewRecord(domain.RecordTypeParameter, host+":"+name, source)
		r.Meta = map[string]string{"url": domain.NormalizeValue(domain.RecordTypeURL, raw)}
		out = append(out, r)
	}
	return out
}

type paramspiderAdapter struct {
	scope *domain.Scope
}

func newParamspider(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &paramspiderAdapter{}, nil
}

func (a *paramspiderAdapter) Name() string { return "paramspider" }

func (a *paramspiderAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("paramspider")
}

func (a *paramspiderAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	hosts := inputs["resolve"].Values(domain.RecordTypeHost)
	return ports.Invocation{
		Args:       []string{"-l", "{input}", "--quiet"},
		InputLines: hosts,
	}, nil
}

func (a *paramspiderAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	raw := strings.TrimSpace(string(line))
	if !strings.Contains(raw, "://") || !inScope(a.scope, raw) {
		return nil, nil
	}
	return paramRecords(raw, "paramspider"), nil
}

type arjunAdapter struct {
	scope *domain.Scope
}

func newArjun(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &arjunAdapter{}, nil
}

func (a *arjunAdapter) Name() string { return "arjun" }

func (a *arjunAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("arjun")
}

func (a *arjunAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	endpoints := inputs["probe"].Values(domain.RecordTypeEndpoint)
	return ports.Invocation{
		Args:           []string{"-i", "{input}", "-oT", "{output}", "--stable"},
		InputLines:     endpoints,
		UsesOutputFile: true,
	}, nil
}

// ParseLine handles arjun's text output file: one URL per line with the
// discovered parameters in its query string.
func (a *arjunAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	raw := strings.TrimSpace(string(line))
	if !strings.Contains(raw, "://") || !inScope(a.scope, raw) {
		return nil, nil
	}
	return paramRecords(raw, "arjun"), nil
}
