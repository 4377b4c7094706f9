package tools

import (
	"strings"
	"time"

	"reconx/internal/core/domain"
	"reconx/internal/core/ports"
	"reconx/internal/platform/logx"
	"reconx/internal/platform/registry"
)

// Subdomain discovery adapters. All three run from the scope alone and
// emit host records; the stage unions their output.

func init() {
	register("subfinder", newSubfinder, ports.AdapterMetadata{
		Description:    "Passive subdomain enumeration (projectdiscovery)",
		Produces:       domain.RecordTypeHost,
		DefaultTimeout: 5 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/projectdiscovery/subfinder/v2/cmd/subfinder@latest",
	})
	register("assetfinder", newAssetfinder, ports.AdapterMetadata{
		Description:    "Subdomain discovery from public sources",
		Produces:       domain.RecordTypeHost,
		DefaultTimeout: 3 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/tomnomnom/assetfinder@latest",
	})
	register("amass", newAmass, ports.AdapterMetadata{
		Description:    "OWASP Amass passive enumeration",
		Produces:       domain.RecordTypeHost,
		DefaultTimeout: 10 * time.Minute,
		ParallelSafe:   true,
		InstallHint:    "go install github.com/owasp-amass/amass/v4/...@master",
	})
}

// register wires an adapter factory into the global registry. Failures are
// logged rather than fatal so a duplicate registration in tests cannot take
// the binary down.
func register(name string, factory ports.AdapterFactory, meta ports.AdapterMetadata) {
	if err := registry.Global().Register(name, factory, meta); err != nil {
		logx.New().Warn("adapter registration failed", "adapter", name, "error", err.Error())
	}
}

type subfinderAdapter struct {
	scope *domain.Scope
}

func newSubfinder(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &subfinderAdapter{}, nil
}

func (a *subfinderAdapter) Name() string { return "subfinder" }

func (a *subfinderAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("subfinder")
}

func (a *subfinderAdapter) BuildArgs(scope *domain.Scope, _ map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	return ports.Invocation{
		Args:       []string{"-dL", "{input}", "-all", "-silent"},
		InputLines: scope.Domains(),
	}, nil
}

func (a *subfinderAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	host := firstField(string(line))
	if !inScope(a.scope, host) {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(domain.RecordTypeHost, host, "subfinder")}, nil
}

type assetfinderAdapter struct {
	scope *domain.Scope
}

func newAssetfinder(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &assetfinderAdapter{}, nil
}

func (a *assetfinderAdapter) Name() string { return "assetfinder" }

func (a *assetfinderAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("assetfinder")
}

func (a *assetfinderAdapter) BuildArgs(scope *domain.Scope, _ map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	return ports.Invocation{
		Args:       []string{"--subs-only"},
		StdinLines: scope.Domains(),
	}, nil
}

func (a *assetfinderAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	host := firstField(string(line))
	// assetfinder surfaces related apexes too; keep scope hits only.
	if !inScope(a.scope, host) {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(domain.RecordTypeHost, host, "assetfinder")}, nil
}

type amassAdapter struct {
	scope *domain.Scope
}

func newAmass(cfg ports.AdapterConfig) (ports.ToolAdapter, error) {
	return &amassAdapter{}, nil
}

func (a *amassAdapter) Name() string { return "amass" }

func (a *amassAdapter) Metadata() ports.AdapterMetadata {
	return adapterMeta("amass")
}

func (a *amassAdapter) BuildArgs(scope *domain.Scope, _ map[string]*domain.Artifact) (ports.Invocation, error) {
	a.scope = scope
	return ports.Invocation{
		Args:       []string{"enum", "-passive", "-nocolor", "-df", "{input}"},
		InputLines: scope.Domains(),
	}, nil
}

// ParseLine handles amass's default text output: the FQDN is the first
// token; graph annotations and banner lines are skipped.
func (a *amassAdapter) ParseLine(line []byte) ([]domain.Record, error) {
	host := firstField(string(line))
	if !strings.Contains(host, ".") || !inScope(a.scope, host) {
		return nil, nil
	}
	return []domain.Record{domain.NewRecord(domain.RecordTypeHost, host, "amass")}, nil
}
