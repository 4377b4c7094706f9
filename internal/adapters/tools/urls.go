package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
)

// URL discovery adapters. gau and waybackurls mine passive archives from
// the resolved hosts; katana crawls them. The stage unions all three.

func init() {
	register("gau", newGau, ports.AdapterMetadata{
		Description:    "URL mining from AlienVault OTX, Wayback and Common Crawl",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypeURL,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/lc/gau/v2/cmd/gau@latest",
	})
	register("waybackurls", newWayback, ports.AdapterMetadata{
		Description:    "URL mining from the Wayback Machine",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypeURL,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/tomnomnom/waybackurls@latest",
	})
	register("katana", newKatana, ports.AdapterMetadata{
		Description:    "Active web crawling",
		Inputs:         []string{"resolve"},
		Produces:       domain.RecordTypeURL,
		DefaultTimeout: 15 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/katana/cmd/katana@latest",
	})
}

// urlLineAdapter covers the URL miners that differ only in argv: one URL
// per stdout line, filtered to scope.
type urlLineAdapter struct {
	name  string
	scope *domain.Scope
	build func(hosts []string) ports.Invocation
}

func (a *urlLineAdapter) Name() string { return a.name }

func (a *urlLineAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta(a.name)
}

func (a *urlLineAdapter) BuildArgs(scope *domain.Scope, inputs map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	return a.build(inputs["resolve"].Values(domain.RecordTypeHost)), nil
}

func (a *urlLineAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	raw := strings.TrimSpace(string(line))
	if !strings.Contains(raw, "://") || !inScope(a.scope, raw) {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(domain.RecordTypeURL, raw, a.name)}, nil
}

func newGau(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &urlLineAdapter{
		name: "gau",
		build: func(hosts []string) ports.Invocation {
			return ports.Invocation{
				Args:       []string{"--subs"},
				StdinLines: hosts,
			}
		},
	}, nil
}

func newWayback(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &urlLineAdapter{
		name: "waybackurls",
		build: func(hosts []string) ports.Invocation {
			return ports.Invocation{StdinLines: hosts}
		},
	}, nil
}

func newKatana(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &urlLineAdapter{
		name: "katana",
		build: func(hosts []string) ports.Invocation {
			return ports.Invocation{
				Args:       []string{"-list", "{input}", "-silent", "-no-color"},
				InputLines: hosts,
			}
		},
	}, nil
}
