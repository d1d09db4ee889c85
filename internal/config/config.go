package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
)

// DefaultFileName is the configuration file looked up when --config is not given.
const DefaultFileName = "gendocs.yaml"

// Config represents the application configuration
type Config struct {
	Version string        `yaml:"version"`
	Project ProjectConfig `yaml:"project"`
	Output  OutputConfig  `yaml:"output"`
	Scan    ScanConfig    `yaml:"scan"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`

	// path is the file the configuration was loaded from (empty for defaults).
	path string
}

// ProjectConfig describes the project being documented
type ProjectConfig struct {
	Root        string `yaml:"root"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	License     string `yaml:"license,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory   string         `yaml:"directory,omitempty"` // Defaults to the project root
	Documents   []DocumentKind `yaml:"documents,omitempty"`
	Frontmatter *bool          `yaml:"frontmatter,omitempty"`
}

// ScanConfig controls the project walk
type ScanConfig struct {
	Exclude        []string `yaml:"exclude,omitempty"`
	MaxFileBytes   int64    `yaml:"max_file_bytes,omitempty"`
	FollowSymlinks bool     `yaml:"follow_symlinks,omitempty"`
}

// LoggingConfig selects log level and handler format
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig enables Prometheus textfile output
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the sqlite run history
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
}

// EventsConfig enables NATS publication of generation events
type EventsConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject,omitempty"`
	Retry   RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig holds raw retry policy settings
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries *int             `yaml:"max_retries,omitempty"` // nil keeps the default; 0 disables retries
}

// WatchConfig tunes the watch command
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string { return c.path }

// FrontmatterEnabled reports whether generated reports carry YAML frontmatter.
func (c *Config) FrontmatterEnabled() bool {
	return c.Output.Frontmatter == nil || *c.Output.Frontmatter
}

// OutputPath returns the absolute path a document kind is written to.
func (c *Config) OutputPath(kind DocumentKind) string {
	return filepath.Join(c.Output.Directory, kind.FileName())
}

// Load loads configuration from the specified file.
// A missing file is not an error: defaults are used with the project root set
// to the directory the file would live in.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	loadEnvFiles(baseDir)

	var cfg Config
	data, err := os.ReadFile(absPath)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		cfg.path = absPath
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg, baseDir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return gderrors.ConfigExists(configPath)
	}

	frontmatter := true
	example := Config{
		Version: "1",
		Project: ProjectConfig{
			Root:        ".",
			Description: "Short description used in README and overview",
		},
		Output: OutputConfig{
			Directory:   ".",
			Documents:   AllDocuments(),
			Frontmatter: &frontmatter,
		},
		Scan: ScanConfig{
			Exclude:      DefaultExcludes(),
			MaxFileBytes: DefaultMaxFileBytes,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		History: HistoryConfig{Database: ".gendocs/history.db"},
		Watch:   WatchConfig{Debounce: DefaultDebounce},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// #nosec G306 -- config file is meant to be readable
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
