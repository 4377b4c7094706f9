// Package config layers the runtime configuration: defaults, then
// RECONX_* environment variables, then CLI flags, then the optional
// tools file. Flags win over environment, environment over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"reconx/internal/core/ports"
	"reconx/internal/platform/errors"
)

// Config is the resolved runtime configuration of one invocation.
type Config struct {
	// Run
	ScopeFile   string
	Resume      bool
	Concurrency int
	Stage       string
	Exclude     []string

	// IO
	OutputDir string
	ToolsFile string

	// Modes
	Quiet        bool
	Doctor       bool
	ReportOnly   bool
	PrintVersion bool

	// Tools holds per-tool overrides, keyed by adapter name. Populated
	// from the tools file; adapters not listed run with their defaults.
	Tools map[string]ports.AdapterConfig
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		OutputDir:   "reconx_out",
		Tools:       make(map[string]ports.AdapterConfig),
	}
}

// Load resolves the configuration from environment and the given argv
// (excluding the program name).
func Load(args []string) (Config, error) {
	cfg := DefaultConfig()

	loadFromEnv(&cfg)

	if err := loadFromFlags(&cfg, args); err != nil {
		return cfg, err
	}

	if cfg.ToolsFile != "" {
		tools, err := LoadToolsFile(cfg.ToolsFile)
		if err != nil {
			return cfg, err
		}
		cfg.Tools = tools
	}

	normalize(&cfg)
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := getenv("RECONX_SCOPE", ""); v != "" {
		cfg.ScopeFile = v
	}
	if v := getenv("RECONX_CONCURRENCY", ""); v != "" {
		cfg.Concurrency = parseInt(v, cfg.Concurrency)
	}
	if v := getenv("RECONX_OUT", ""); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("RECONX_TOOLS", ""); v != "" {
		cfg.ToolsFile = v
	}
	if v := getenv("RECONX_QUIET", ""); v != "" {
		cfg.Quiet = parseBool(v)
	}
	if v := getenv("RECONX_EXCLUDE", ""); v != "" {
		cfg.Exclude = splitList(v)
	}
}

func loadFromFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet("reconx", pflag.ContinueOnError)

	fs.StringVar(&cfg.ScopeFile, "scope", cfg.ScopeFile, "Path to the scope file (one target per line)")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Skip stages with committed artifacts")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Maximum concurrent tool invocations per stage")
	fs.StringVar(&cfg.Stage, "stage", cfg.Stage, "Run only this stage and its prerequisites")
	fs.StringSliceVar(&cfg.Exclude, "exclude", cfg.Exclude, "Hosts or suffixes excluded from the scope")

	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Artifact output directory")
	fs.StringVar(&cfg.ToolsFile, "tools", cfg.ToolsFile, "Path to the per-tool configuration file (YAML)")

	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress progress output, log only warnings and errors")
	fs.BoolVar(&cfg.Doctor, "doctor", cfg.Doctor, "Check tool availability and exit")
	fs.BoolVar(&cfg.ReportOnly, "report-only", cfg.ReportOnly, "Rebuild reports from stored artifacts without running tools")
	fs.BoolVar(&cfg.PrintVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return nil
}

// Validate checks the invariants a run depends on. Doctor and version
// modes skip scope validation in main.
func (c Config) Validate() error {
	if c.ScopeFile == "" && !c.ReportOnly {
		return errors.Wrap(errors.ErrInvalidInput, "scope file is required (--scope)")
	}
	if c.Concurrency < 1 {
		return errors.Wrap(errors.ErrInvalidInput, "concurrency must be at least 1")
	}
	return nil
}

func normalize(c *Config) {
	c.ScopeFile = strings.TrimSpace(c.ScopeFile)
	c.Stage = strings.TrimSpace(strings.ToLower(c.Stage))
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.OutputDir == "" {
		c.OutputDir = "reconx_out"
	}
}

// toolsFile is the YAML shape of the per-tool configuration file.
type toolsFile struct {
	Tools map[string]toolEntry `yaml:"tools"`
}

type toolEntry struct {
	Path    string            `yaml:"path"`
	Timeout string            `yaml:"timeout"`
	Retries int               `yaml:"retries"`
	Args    []string          `yaml:"args"`
	Options map[string]string `yaml:"options"`
}

// LoadToolsFile parses the per-tool YAML configuration.
func LoadToolsFile(path string) (map[string]ports.AdapterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "read tools file %s: %v", path, err)
	}

	var tf toolsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "parse tools file %s: %v", path, err)
	}

	out := make(map[string]ports.AdapterConfig, len(tf.Tools))
	for name, entry := range tf.Tools {
		cfg := ports.DefaultAdapterConfig()
		cfg.Path = entry.Path
		cfg.ExtraArgs = entry.Args
		cfg.Retries = entry.Retries
		for k, v := range entry.Options {
			cfg.Custom[k] = v
		}
		if entry.Timeout != "" {
			d, err := time.ParseDuration(entry.Timeout)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidInput,
					"tools file %s: tool %s: bad timeout %q", path, name, entry.Timeout)
			}
			cfg.Timeout = d
		}
		out[strings.ToLower(name)] = cfg
	}
	return out, nil
}

// Helpers

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders the effective configuration for debug logging.
func (c Config) String() string {
	return fmt.Sprintf("scope=%s out=%s concurrency=%d resume=%v stage=%q tools=%d",
		c.ScopeFile, c.OutputDir, c.Concurrency, c.Resume, c.Stage, len(c.Tools))
}
