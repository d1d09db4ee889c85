// Package watch regenerates documents when the project tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/gendocs/internal/config"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/util/sets"
)

// Trigger reasons passed to the TriggerFunc.
const (
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// TriggerFunc regenerates the documents. Errors are logged and do not stop the watcher.
type TriggerFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	Root     string
	Exclude  []string // directory names skipped at any depth
	Ignore   []string // absolute paths whose changes never trigger (generated outputs)
	Debounce time.Duration
	Interval time.Duration // zero disables periodic regeneration
	Logger   *slog.Logger
}

// OptionsFromConfig derives watch options from cfg. Generated documents, the
// history database and the metrics textfile are ignored.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	opts := Options{
		Root:     cfg.Project.Root,
		Exclude:  cfg.Scan.Exclude,
		Debounce: cfg.Watch.Debounce,
		Interval: cfg.Watch.Interval,
		Logger:   logger,
	}
	for _, k := range config.AllDocuments() {
		opts.Ignore = append(opts.Ignore, cfg.OutputPath(k))
	}
	if cfg.History.Database != "" {
		db := cfg.History.Database
		opts.Ignore = append(opts.Ignore, db, db+"-journal", db+"-wal", db+"-shm")
	}
	if cfg.Metrics.Textfile != "" {
		opts.Ignore = append(opts.Ignore, cfg.Metrics.Textfile)
	}
	return opts
}

// Watcher watches a project tree with fsnotify and calls a TriggerFunc after
// changes settle, and optionally on a fixed interval.
type Watcher struct {
	opts    Options
	trigger TriggerFunc
	logger  *slog.Logger
	exclude sets.Set[string]
	ignore  sets.Set[string]

	fsw *fsnotify.Watcher
	mu  sync.Mutex // serialises trigger calls
}

// New creates a watcher. Call Run to start it.
func New(opts Options, trigger TriggerFunc) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.New("watch trigger is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	opts.Root = root
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		opts:    opts,
		trigger: trigger,
		logger:  logger,
		exclude: sets.New(opts.Exclude...),
		ignore:  sets.New[string](),
	}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore.Add(abs)
		}
	}
	return w, nil
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if err := w.addTree(w.opts.Root); err != nil {
		return err
	}

	if w.opts.Interval > 0 {
		sched, err := w.startScheduler(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				w.logger.Warn("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching project for changes",
		logfields.Path(w.opts.Root),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending int
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("Stopping watcher")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			pending++
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.opts.Debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.logger.Info("Regenerating after changes", logfields.Count(pending))
			pending = 0
			w.run(ctx, ReasonChange)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() { w.run(ctx, ReasonInterval) }),
		gocron.WithName("periodic-regeneration"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule periodic regeneration: %w", err)
	}
	s.Start()
	return s, nil
}

func (w *Watcher) run(ctx context.Context, reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err := w.trigger(ctx, reason); err != nil {
		w.logger.Error("Regeneration failed", slog.String("reason", reason), logfields.Error(err))
	}
}

// relevant filters events and registers newly created directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.ignored(event.Name) || w.inExcludedDir(event.Name) {
		return false
	}
	if event.Op.Has(fsnotify.Create) {
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
		}
	}
	return true
}

// ignored reports whether name is an ignored output or the temporary file
// written while one is replaced.
func (w *Watcher) ignored(name string) bool {
	if w.ignore.Has(name) {
		return true
	}
	dir, base := filepath.Split(name)
	if before, _, ok := strings.Cut(base, ".tmp-"); ok && strings.HasPrefix(before, ".") {
		return w.ignore.Has(filepath.Join(dir, before[1:]))
	}
	return false
}

func (w *Watcher) inExcludedDir(name string) bool {
	rel, err := filepath.Rel(w.opts.Root, name)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for dir := rel; dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if w.exclude.Has(filepath.Base(dir)) {
			return true
		}
	}
	return false
}

// addTree watches dir and every non-excluded directory below it. Files are ignored.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			// Vanished or unreadable entries are picked up by a later event, if any.
			return nil
		}
		if path != w.opts.Root && w.exclude.Has(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
