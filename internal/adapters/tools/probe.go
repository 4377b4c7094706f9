package tools

import (
	"encoding/json"
	"strconv"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

func init() {
	register("httpx", newHTTPX, ports.AdapterMetadata{
		Description:    "HTTP probing with status, title and tech detection",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypeEndpoint,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/httpx/cmd/httpx@latest",
	})
}

type httpxAdapter struct{}

func newHTTPX(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &httpxAdapter{}, nil
}

func (a *httpxAdapter) Name() string { return "httpx" }

func (a *httpxAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("httpx")
}

func (a *httpxAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	hosts := inputs["resolve"].Values(domain.RecordTypeHost)
	return ports.Invocation{
		Args:       []string{"-silent", "-json", "-title", "-status-code", "-tech-detect", "-no-color"},
		StdinLines: hosts,
	}, nil
}

// httpxResult is the subset of httpx's JSONL output the pipeline consumes.
type httpxResult struct {
	URL          string   `json:"url"`
	Host         string   `json:"host"`
	StatusCode   int      `json:"status_code"`
	Title        string   `json:"title"`
	WebServer    string   `json:"webserver"`
	Technologies []string `json:"tech"`
}

func (a *httpxAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	var res httpxResult
	if err := json.Unmarshal(line, &res); err != nil {
		return nil, err
	}
	if res.URL == "" {
		return nil, nil
	}

	endpoint := domain.NewRecord(domain.RecordTypeEndpoint, res.URL, "httpx")
	endpoint.Meta = map[string]string{
		"status": strconv.Itoa(res.StatusCode),
	}
	if res.Title != "" {
		endpoint.Meta["title"] = res.Title
	}
	if res.WebServer != "" {
		endpoint.Meta["server"] = res.WebServer
	}

	records := []domain.Record{endpoint}
	for _, tech := range res.Technologies {
		r := domain.NewRecord(domain.RecordTypeTechnology, tech, "httpx")
		r.Meta = map[string]string{"endpoint": endpoint.Value}
		records = append(records, r)
	}
	return records, nil
}
