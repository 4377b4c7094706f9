package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reconx/internal/platform/errors"
	"reconx/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	testutil.AssertEqual(t, cfg.Concurrency, 4, "default concurrency")
	testutil.AssertEqual(t, cfg.OutputDir, "reconx_out", "default output dir")
	testutil.AssertFalse(t, cfg.Resume, "resume off by default")
	testutil.AssertFalse(t, cfg.Quiet, "quiet off by default")
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--scope", "scope.txt",
		"--resume",
		"--concurrency", "8",
		"--stage", "Probe",
		"--out", "/tmp/recon",
		"--exclude", "internal.example.com,dev.example.com",
	})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.ScopeFile, "scope.txt", "scope file")
	testutil.AssertTrue(t, cfg.Resume, "resume")
	testutil.AssertEqual(t, cfg.Concurrency, 8, "concurrency")
	testutil.AssertEqual(t, cfg.Stage, "probe", "stage lowercased")
	testutil.AssertEqual(t, cfg.OutputDir, "/tmp/recon", "output dir")
	testutil.AssertLen(t, len(cfg.Exclude), 2, "exclusions")
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})

	testutil.AssertError(t, err, "unknown flag rejected")
	testutil.AssertTrue(t, errors.IsInvalidInput(err), "wraps ErrInvalidInput")
}

func TestLoadEnvOverriddenByFlags(t *testing.T) {
	t.Setenv("RECONX_CONCURRENCY", "2")
	t.Setenv("RECONX_OUT", "/tmp/from-env")

	cfg, err := Load([]string{"--concurrency", "6"})
	testutil.AssertNoError(t, err, "load")

	testutil.AssertEqual(t, cfg.Concurrency, 6, "flag beats env")
	testutil.AssertEqual(t, cfg.OutputDir, "/tmp/from-env", "env beats default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) { c.ScopeFile = "scope.txt" }, false},
		{"missing scope", func(c *Config) {}, true},
		{"report-only without scope", func(c *Config) { c.ReportOnly = true }, false},
		{"zero concurrency", func(c *Config) { c.ScopeFile = "s.txt"; c.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				testutil.AssertError(t, err, "expected validation error")
				testutil.AssertTrue(t, errors.IsInvalidInput(err), "wraps ErrInvalidInput")
			} else {
				testutil.AssertNoError(t, err, "expected valid config")
			}
		})
	}
}

func TestLoadToolsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	content := `tools:
  subfinder:
    path: /opt/bin/subfinder
    timeout: 90s
    retries: 2
    args: ["-all"]
  nuclei:
    options:
      severity: "high,critical"
`
	err := os.WriteFile(path, []byte(content), 0o644)
	testutil.AssertNoError(t, err, "write tools file")

	tools, err := LoadToolsFile(path)
	testutil.AssertNoError(t, err, "parse tools file")
	testutil.AssertLen(t, len(tools), 2, "two tools")

	sub := tools["subfinder"]
	testutil.AssertEqual(t, sub.Path, "/opt/bin/subfinder", "path override")
	testutil.AssertEqual(t, sub.Timeout, 90*time.Second, "timeout override")
	testutil.AssertEqual(t, sub.Retries, 2, "retries")
	testutil.AssertLen(t, len(sub.ExtraArgs), 1, "extra args")

	nuc := tools["nuclei"]
	testutil.AssertEqual(t, nuc.Custom["severity"], "high,critical", "custom option")
}

func TestLoadToolsFileBadTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yaml")
	err := os.WriteFile(path, []byte("tools:\n  httpx:\n    timeout: nope\n"), 0o644)
	testutil.AssertNoError(t, err, "write tools file")

	_, err = LoadToolsFile(path)
	testutil.AssertError(t, err, "bad duration rejected")
	testutil.AssertTrue(t, errors.IsInvalidInput(err), "wraps ErrInvalidInput")
}

func TestLoadToolsFileMissing(t *testing.T) {
	_, err := LoadToolsFile("/nonexistent/tools.yaml")

	testutil.AssertError(t, err, "missing file rejected")
	testutil.AssertTrue(t, errors.IsInvalidInput(err), "wraps ErrInvalidInput")
}
