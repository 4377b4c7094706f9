package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

func init() {
	register("naabu", newNaabu, ports.AdapterMetadata{
		Description:    "Fast TCP port scanning",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypePort,
		DefaultTimeout: 15 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/naabu/v2/cmd/naabu@latest",
	})
}

type naabuAdapter struct{}

func newNaabu(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &naabuAdapter{}, nil
}

func (a *naabuAdapter) Name() string { return "naabu" }

func (a *naabuAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("naabu")
}

func (a *naabuAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	hosts := inputs["resolve"].Values(domain.RecordTypeHost)
	return ports.Invocation{
		Args:       []string{"-list", "{input}", "-top-ports", "1000", "-silent", "-no-color"},
		InputLines: hosts,
	}, nil
}

// ParseLine handles naabu's host:port output.
func (a *naabuAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	text := firstField(string(line))
	host, port, ok := strings.Cut(text, ":")
	if !ok || host == "" || port == "" {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(domain.RecordTypePort, text, "naabu")}, nil
}
