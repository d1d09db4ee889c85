package config

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultMaxFileBytes int64 = 1 << 20
	DefaultDebounce           = 2 * time.Second
	DefaultEventSubject       = "gendocs.generated"
)

// DefaultExcludes returns directory names skipped during scanning.
func DefaultExcludes() []string {
	return []string{".git", "node_modules", "vendor", "dist", "build", ".idea", ".vscode", "__pycache__", ".gendocs"}
}

// applyDefaults fills unset fields. Relative paths are resolved against baseDir
// (project root) and the project root.
func applyDefaults(cfg *Config, baseDir string) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = baseDir
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(baseDir, cfg.Project.Root)
	}
	cfg.Project.Root = filepath.Clean(cfg.Project.Root)

	root := cfg.Project.Root
	cfg.Output.Directory = resolveUnder(root, cfg.Output.Directory)
	if len(cfg.Output.Documents) == 0 {
		cfg.Output.Documents = AllDocuments()
	}

	if len(cfg.Scan.Exclude) == 0 {
		cfg.Scan.Exclude = DefaultExcludes()
	}
	if cfg.Scan.MaxFileBytes == 0 {
		cfg.Scan.MaxFileBytes = DefaultMaxFileBytes
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = resolveUnder(root, cfg.Metrics.Textfile)
	}
	if cfg.History.Database != "" && cfg.History.Database != ":memory:" {
		cfg.History.Database = resolveUnder(root, cfg.History.Database)
	}

	if cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventSubject
	}
	if cfg.Events.Retry.Mode == "" {
		cfg.Events.Retry.Mode = RetryBackoffLinear
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}

func resolveUnder(root, p string) string {
	if p == "" {
		return root
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// Rebase moves the project root to root. Paths that lived under the previous
// root move with it; paths outside it are kept.
func (c *Config) Rebase(root string) {
	if root == "" {
		return
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	abs = filepath.Clean(abs)
	prev := c.Project.Root
	move := func(p string) string {
		if p == "" || p == ":memory:" {
			return p
		}
		rel, err := filepath.Rel(prev, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return p
		}
		return filepath.Join(abs, rel)
	}
	c.Output.Directory = move(c.Output.Directory)
	c.Metrics.Textfile = move(c.Metrics.Textfile)
	c.History.Database = move(c.History.Database)
	c.Project.Root = abs
}
