package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

func init() {
	register("dnsx", newDNSX, ports.AdapterMetadata{
		Description:    "DNS resolution and liveness filter",
		Inputs:         []string{"subdomains"},
		Produces:       domain.RecordTypeHost,
		DefaultTimeout: 5 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/dnsx/cmd/dnsx@latest",
	})
}

type dnsxAdapter struct{}

func newDNSX(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &dnsxAdapter{}, nil
}

func (a *dnsxAdapter) Name() string { return "dnsx" }

func (a *dnsxAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("dnsx")
}

func (a *dnsxAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	hosts := inputs["subdomains"].Values(domain.RecordTypeHost)
	return ports.Invocation{
		Args:       []string{"-silent", "-a", "-resp", "-no-color"},
		StdinLines: hosts,
	}, nil
}

// ParseLine handles dnsx -resp output: "host [A] [ip]" or "host [ip]".
// Each line yields the resolved host plus one ip record per address.
func (a *dnsxAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	text := string(line)
	host := firstField(text)
	if host == "" {
		return nil, nil
	}

	records := []domain.Record{domain.NewRecord(domain.RecordTypeHost, host, "dnsx")}
	rest := text[len(host):]
	for {
		open := strings.Index(rest, "[")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open:], "]")
		if end < 0 {
			break
		}
		token := rest[open+1 : open+end]
		rest = rest[open+end+1:]
		if token == "" || strings.ToUpper(token) == token && !strings.Contains(token, ".") && !strings.Contains(token, ":") {
			continue // record-type tag like [A] or [CNAME]
		}
		r := domain.NewRecord(domain.RecordTypeIP, token, "dnsx")
		r.Meta = map[string]string{"host": domain.NormalizeValue(domain.RecordTypeHost, host)}
		records = append(records, r)
	}
	return records, nil
}
