package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-wcet-smt/pkg/cfg"
	"github.com/l3aro/go-wcet-smt/pkg/report"
)

// Config holds all configuration for wcet
type Config struct {
	// Encoding is the numeric encoding id: 0 default, 1 assert-soft, 2 difference logic
	Encoding int `yaml:"encoding" env:"WCET_ENCODING"`

	// Timeout in seconds handed to the solver; 0 leaves it unset
	Timeout int `yaml:"timeout" env:"WCET_TIMEOUT"`

	// Cut synthesis
	NoSummaries   bool `yaml:"no_summaries" env:"WCET_NO_SUMMARIES"`
	RecursiveCuts bool `yaml:"recursive_cuts" env:"WCET_RECURSIVE_CUTS"`

	// Emission switches
	EdgeImpliesNodes bool `yaml:"edge_implies_nodes" env:"WCET_EDGE_IMPLIES_NODES"`
	ProduceModels    bool `yaml:"produce_models" env:"WCET_PRODUCE_MODELS"`

	// ReportFormat is used by inspect and by generate --report
	ReportFormat string `yaml:"report_format" env:"WCET_REPORT_FORMAT"`

	// Batch settings
	Include  []string `yaml:"include" env:"WCET_INCLUDE"`
	CacheDir string   `yaml:"cache_dir" env:"WCET_CACHE_DIR"`

	// Logging
	Verbose bool `yaml:"verbose" env:"WCET_VERBOSE"`
	LogJSON bool `yaml:"log_json" env:"WCET_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Encoding:         int(cfg.EncodingDefault),
		Timeout:          0,
		NoSummaries:      false,
		RecursiveCuts:    false,
		EdgeImpliesNodes: false,
		ProduceModels:    false,
		ReportFormat:     string(report.FormatText),
		Include:          []string{"**/*.wcet", "**/*.wcet.gz", "**/*.wcet.zst"},
		CacheDir:         ".wcet/cache",
		Verbose:          false,
		LogJSON:          false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.wcet/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wcet/config.yaml"
	}
	return filepath.Join(home, ".wcet", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.wcet/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".wcet", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables (WCET_*, seeded from ./.env when present)
// 2. Project-level config (./.wcet/config.yaml)
// 3. Global config (~/.wcet/config.yaml)
// 4. Defaults
//
// Command-line flags are applied on top by the caller.
func Load() (*Config, error) {
	c := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(c, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	c := DefaultConfig()
	if err := mergeFile(c, path); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func mergeFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadDotEnv seeds the process environment from a dotenv file. Variables
// already set in the environment win over the file.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("WCET_ENCODING"); v != "" {
		i, ok := parseInt(v)
		if !ok {
			return fmt.Errorf("WCET_ENCODING: not an integer: %q", v)
		}
		c.Encoding = i
	}
	if v := os.Getenv("WCET_TIMEOUT"); v != "" {
		i, ok := parseInt(v)
		if !ok {
			return fmt.Errorf("WCET_TIMEOUT: not an integer: %q", v)
		}
		c.Timeout = i
	}
	if v := os.Getenv("WCET_NO_SUMMARIES"); v != "" {
		c.NoSummaries = parseBool(v)
	}
	if v := os.Getenv("WCET_RECURSIVE_CUTS"); v != "" {
		c.RecursiveCuts = parseBool(v)
	}
	if v := os.Getenv("WCET_EDGE_IMPLIES_NODES"); v != "" {
		c.EdgeImpliesNodes = parseBool(v)
	}
	if v := os.Getenv("WCET_PRODUCE_MODELS"); v != "" {
		c.ProduceModels = parseBool(v)
	}
	if v := os.Getenv("WCET_REPORT_FORMAT"); v != "" {
		c.ReportFormat = v
	}
	if v := os.Getenv("WCET_INCLUDE"); v != "" {
		c.Include = splitList(v)
	}
	if v := os.Getenv("WCET_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("WCET_VERBOSE"); v != "" {
		c.Verbose = parseBool(v)
	}
	if v := os.Getenv("WCET_LOG_JSON"); v != "" {
		c.LogJSON = parseBool(v)
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := cfg.ParseEncoding(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		return fmt.Errorf("invalid report_format: %w", err)
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include must list at least one pattern")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required")
	}
	return nil
}

// EmitOptions returns the emission switches selected by the config.
func (c *Config) EmitOptions() cfg.EmitOptions {
	return cfg.EmitOptions{EdgeImpliesNodes: c.EdgeImpliesNodes}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, bool) {
	var i int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &i); err != nil {
		return 0, false
	}
	return i, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
