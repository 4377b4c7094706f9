package tools

import (
	"os/exec"

	"reconx/internal/core/ports"
	"reconx/internal/platform/registry"
)

// CheckResult reports the availability of one tool binary.
type CheckResult struct {
	Tool        string
	Path        string
	Available   bool
	InstallHint string
}

// Doctor resolves every registered tool in PATH, honoring per-tool path
// overrides. Missing binaries don't stop the check; the caller decides how
// to present the results.
func Doctor(reg *registry.AdapterRegistry, cfgs map[string]ports.AdapterConfig) []CheckResult {
	names := reg.List()
	results := make([]CheckResult, 0, len(names))

	for _, name := range names {
		binary := name
		if cfg, ok := cfgs[name]; ok && cfg.Path != "" {
			binary = cfg.Path
		}

		result := CheckResult{Tool: name}
		if meta, ok := reg.GetMetadata(name); ok {
			result.InstallHint = meta.InstallHint
		}

		if path, err := exec.LookPath(binary); err == nil {
			result.Available = true
			result.Path = path
		}
		results = append(results, result)
	}
	return results
}
