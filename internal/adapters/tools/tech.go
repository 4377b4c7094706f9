package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

func init() {
	register("whatweb", newWhatweb, ports.AdapterMetadata{
		Description:    "Web technology fingerprinting",
		Inputs:         []string{"probe"},
		Produces:       domain.RecordTypeTechnology,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "gem install whatweb (or distribution package)",
	})
}

type whatwebAdapter struct{}

func newWhatweb(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &whatwebAdapter{}, nil
}

func (a *whatwebAdapter) Name() string { return "whatweb" }

func (a *whatwebAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("whatweb")
}

func (a *whatwebAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	endpoints := inputs["probe"].Values(domain.RecordTypeEndpoint)
	return ports.Invocation{
		Args:       []string{"--no-errors", "--color=never", "-i", "{input}"},
		InputLines: endpoints,
	}, nil
}

// ParseLine handles whatweb's brief output:
//
//	http://x [200 OK] Apache[2.4.41], Country[ES], Title[Home]
//
// Each plugin becomes a technology record tied to the probed endpoint.
// Informational plugins that carry no stack signal are skipped.
func (a *whatwebAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	text := string(line)
	endpoint := firstField(text)
	if !strings.Contains(endpoint, "://") {
		return nil, nil
	}
	rest := text[len(endpoint):]

	// Drop the "[200 OK]" status block.
	if i := strings.Index(rest, "]"); i >= 0 && strings.Contains(rest[:i], "[") {
		rest = rest[i+1:]
	}

	var records []domain.Record
	for _, item := range strings.Split(rest, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, detail, _ := strings.Cut(item, "[")
		name = strings.TrimSpace(name)
		// Comma-split leftovers of a multi-value detail have no clean
		// plugin name; skip them.
		if name == "" || strings.ContainsAny(name, "]") || skipPlugin(name) {
			continue
		}
		r := domain.NewRecord(domain.RecordTypeTechnology, name, "whatweb")
		r.Meta = map[string]string{
			"endpoint": domain.NormalizeValue(domain.RecordTypeEndpoint, endpoint),
		}
		if detail = strings.TrimSuffix(strings.TrimSpace(detail), "]"); detail != "" {
			r.Meta["detail"] = detail
		}
		records = append(records, r)
	}
	return records, nil
}

// skipPlugin filters whatweb plugins that describe the response rather than
// the technology stack.
func skipPlugin(name string) bool {
	switch strings.ToLower(name) {
	case "country", "ip", "title", "httpserver", "redirectlocation", "uncommonheaders", "email":
		return true
	default:
		return false
	}
}
