// Package generator is the main documentation process: it gathers project
// facts, renders the configured documents and writes the ones that changed.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/events"
	"git.home.luguber.info/inful/gendocs/internal/git"
	"git.home.luguber.info/inful/gendocs/internal/history"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/metrics"
	"git.home.luguber.info/inful/gendocs/internal/render"
	"git.home.luguber.info/inful/gendocs/internal/scan"
	"git.home.luguber.info/inful/gendocs/internal/testinv"
)

// HistoryRecorder persists run records.
type HistoryRecorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// Generator renders and writes the project documents described by a config.
type Generator struct {
	cfg       *config.Config
	renderer  *render.Renderer
	scanner   *scan.Scanner
	recorder  metrics.Recorder
	publisher events.Publisher
	history   HistoryRecorder
	logger    *slog.Logger
	now       func() time.Time
	readGit   func(root string) (*git.Info, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(g *Generator) {
		if p != nil {
			g.publisher = p
		}
	}
}

// WithHistory enables run history.
func WithHistory(h HistoryRecorder) Option {
	return func(g *Generator) { g.history = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source used for lastmod and run timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a generator for cfg.
func New(cfg *config.Config, opts ...Option) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	r, err := render.New()
	if err != nil {
		return nil, gderrors.InternalError("failed to load document templates", err)
	}
	g := &Generator{
		cfg:       cfg,
		renderer:  r,
		scanner:   scan.NewScanner(scan.OptionsFromConfig(cfg)),
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
		readGit: func(root string) (*git.Info, error) {
			return git.Read(root, git.Options{})
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// facts is everything the documents are rendered from.
type facts struct {
	project *scan.Project
	tests   *testinv.Inventory
	git     *git.Info
}

// gather scans the project, builds the test inventory and reads git metadata
// concurrently. Git failures are logged and otherwise ignored.
func (g *Generator) gather(ctx context.Context) (*facts, error) {
	root := g.cfg.Project.Root
	f := &facts{}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		start := time.Now()
		p, err := g.scanner.Scan(egCtx, root)
		if err != nil {
			return gderrors.ScanFailed(root, err)
		}
		g.logger.Debug("Project scanned",
			logfields.Stage("scan"),
			logfields.Count(p.TotalFiles()),
			logfields.DurationMS(ms(time.Since(start))))

		inv, err := testinv.Build(egCtx, p)
		if err != nil {
			return gderrors.ScanFailed(root, fmt.Errorf("test inventory: %w", err))
		}
		f.project, f.tests = p, inv
		return nil
	})
	eg.Go(func() error {
		info, err := g.readGit(root)
		if err != nil {
			g.logger.Warn("Git metadata unavailable", logfields.Path(root), logfields.Error(err))
			info = &git.Info{}
		}
		f.git = info
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

func (g *Generator) renderData(f *facts, kinds []config.DocumentKind) *render.Data {
	rootLink := ""
	if rel, err := filepath.Rel(g.cfg.Output.Directory, g.cfg.Project.Root); err == nil && rel != "." {
		rootLink = filepath.ToSlash(rel)
	}
	return &render.Data{
		Project:   f.project,
		Tests:     f.tests,
		Git:       f.git,
		License:   g.cfg.Project.License,
		Documents: kinds,
		RootLink:  rootLink,
	}
}

func (g *Generator) documents(override []config.DocumentKind) []config.DocumentKind {
	if len(override) > 0 {
		return override
	}
	return g.cfg.Output.Documents
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
