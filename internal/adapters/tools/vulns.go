package tools

import (
	"encoding/json"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

const defaultSeverities = "low,medium,high"

func init() {
	register("nuclei", newNuclei, ports.AdapterMetadata{
		Description:    "Template-based vulnerability scanning",
		Inputs:         []string{"probe"},
		Produces:       domain.RecordTypeFinding,
		DefaultTimeout: 30 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/nuclei/v3/cmd/nuclei@latest",
	})
}

type nucleiAdapter struct {
	severities string
}

func newNuclei(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	severities := defaultSeverities
	if v := cfg.Custom["severity"]; v != "" {
		severities = v
	}
	return &nucleiAdapter{severities: severities}, nil
}

func (a *nucleiAdapter) Name() string { return "nuclei" }

func (a *nucleiAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("nuclei")
}

func (a *nucleiAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	endpoints := inputs["probe"].Values(domain.RecordTypeEndpoint)
	return ports.Invocation{
		Args:       []string{"-l", "{input}", "-severity", a.severities, "-silent", "-jsonl", "-no-color"},
		InputLines: endpoints,
	}, nil
}

// nucleiResult is the subset of nuclei's JSONL output the pipeline consumes.
type nucleiResult struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Name     string `json:"name"`
		Severity string `json:"severity"`
	} `json:"info"`
	Host      string `json:"host"`
	MatchedAt string `json:"matched-at"`
}

func (a *nucleiAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	var res nucleiResult
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, err
	}
	if res.TemplateID == "" || res.MatchedAt == "" {
		return nil, nil
	}

	r := domain.NewRecord(domain.RecordTypeFinding, res.TemplateID+"@"+res.MatchedAt, "nuclei")
	r.Meta = map[string]string{
		"severity": res.Info.Severity,
		"name":     res.Info.Name,
	}
	if res.Host != "" {
		r.Meta["host"] = res.Host
	}
	return []domain.Record{r}, nil
}
