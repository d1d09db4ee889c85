package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/events"
	"git.home.luguber.info/inful/gendocs/internal/generator"
	"git.home.luguber.info/inful/gendocs/internal/history"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/metrics"
	"git.home.luguber.info/inful/gendocs/internal/retry"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger  *slog.Logger
	Context context.Context // cancelled on SIGINT/SIGTERM
	Out     io.Writer
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"gendocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Generate the project documents"`
	Check    CheckCmd    `cmd:"" help:"Report documents that are missing or out of date"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate documents when the project changes"`
	History  HistoryCmd  `cmd:"" help:"Show recorded generation runs"`
}

// AfterApply runs after flag parsing; sets up a preliminary logger until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration and replaces the global logger with one
// built from its logging section.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		if _, ok := gderrors.As(err); ok {
			return nil, err
		}
		return nil, gderrors.ConfigInvalid(c.Config, err)
	}
	logger := cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	if g != nil && g.Logger == nil {
		g.Logger = logger
	}
	logger.Debug("Configuration loaded", logfields.File(cfg.Path()), logfields.Path(cfg.Project.Root))
	return cfg, nil
}

// TargetFlags are the flags that redirect a command to another project tree.
type TargetFlags struct {
	Root   string `help:"Project root (overrides the configured root)" type:"path"`
	Output string `short:"o" help:"Output directory for generated documents" type:"path"`
	Only   string `help:"Comma-separated documents to process (overview,testing,readme,readme_cn)"`
}

// apply rebases cfg onto the flags and returns the selected documents.
// The project root must be an existing directory; it is checked here so no
// sink creates anything under a mistyped root.
func (t TargetFlags) apply(cfg *config.Config) ([]config.DocumentKind, error) {
	if t.Root != "" {
		cfg.Rebase(t.Root)
	}
	if info, err := os.Stat(cfg.Project.Root); err != nil {
		return nil, gderrors.ValidationFailed("root", err.Error())
	} else if !info.IsDir() {
		return nil, gderrors.ValidationFailed("root", cfg.Project.Root+" is not a directory")
	}
	if t.Output != "" {
		abs, err := filepath.Abs(t.Output)
		if err != nil {
			return nil, gderrors.ValidationFailed("output", err.Error())
		}
		cfg.Output.Directory = abs
	}
	kinds, err := config.ParseDocumentKinds(t.Only)
	if err != nil {
		return nil, gderrors.ValidationFailed("only", err.Error())
	}
	return kinds, nil
}

// buildGenerator wires the configured metrics, history and event sinks into
// a generator. The returned cleanup closes them.
func buildGenerator(cfg *config.Config, logger *slog.Logger) (*generator.Generator, func(), error) {
	opts := []generator.Option{generator.WithLogger(logger)}
	var closers []func() error

	if cfg.Metrics.Textfile != "" {
		opts = append(opts, generator.WithRecorder(metrics.NewPrometheusRecorder(nil)))
	}

	if cfg.History.Database != "" {
		store, err := history.Open(cfg.History.Database)
		if err != nil {
			logger.Warn("Run history disabled", logfields.Path(cfg.History.Database), logfields.Error(err))
		} else {
			opts = append(opts, generator.WithHistory(store))
			closers = append(closers, store.Close)
		}
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, retry.FromConfig(cfg.Events.Retry), logger)
		if err != nil {
			logger.Warn("Event publishing disabled", logfields.Subject(cfg.Events.Subject), logfields.Error(err))
		} else {
			opts = append(opts, generator.WithPublisher(pub))
			closers = append(closers, pub.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close resource", logfields.Error(err))
			}
		}
	}

	g, err := generator.New(cfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return g, cleanup, nil
}
