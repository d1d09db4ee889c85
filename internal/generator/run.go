package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/events"
	"git.home.luguber.info/inful/gendocs/internal/git"
	"git.home.luguber.info/inful/gendocs/internal/history"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/metrics"
	"git.home.luguber.info/inful/gendocs/internal/scan"
	"git.home.luguber.info/inful/gendocs/internal/testinv"
	"git.home.luguber.info/inful/gendocs/internal/util/sets"
	"git.home.luguber.info/inful/gendocs/internal/version"
)

// Command names recorded in run history.
const (
	CommandGenerate = "generate"
	CommandCheck    = "check"
	CommandWatch    = "watch"
)

// RunOptions controls a generation run.
type RunOptions struct {
	Documents []config.DocumentKind // overrides the configured documents when non-empty
	DryRun    bool
	Command   string // recorded in history; defaults to "generate"
}

// Result is the outcome of Run or Check.
type Result struct {
	RunID     string
	Command   string
	StartedAt time.Time
	Duration  time.Duration
	DryRun    bool
	Project   *scan.Project
	Tests     *testinv.Inventory
	Git       *git.Info
	Documents []DocumentResult
}

// Changed returns the documents that were (or would be) written.
func (r *Result) Changed() []DocumentResult {
	var out []DocumentResult
	for _, d := range r.Documents {
		if d.Changed() {
			out = append(out, d)
		}
	}
	return out
}

// Run generates the selected documents.
func (g *Generator) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	res := g.newResult(opts.Command, CommandGenerate)
	res.DryRun = opts.DryRun
	logger := g.logger.With(logfields.RunID(res.RunID))
	logger.Info("Generating documents", logfields.Path(g.cfg.Project.Root), slog.Bool("dry_run", opts.DryRun))

	err := g.generate(ctx, res, g.documents(opts.Documents))
	g.finish(ctx, res, err)
	if err != nil {
		return res, err
	}

	changed := len(res.Changed())
	logger.Info("Document generation complete",
		logfields.Count(changed),
		logfields.DurationMS(ms(res.Duration)))
	return res, nil
}

func (g *Generator) newResult(command, fallback string) *Result {
	if command == "" {
		command = fallback
	}
	return &Result{RunID: uuid.NewString(), Command: command, StartedAt: g.now()}
}

func (g *Generator) generate(ctx context.Context, res *Result, kinds []config.DocumentKind) error {
	f, err := g.gather(ctx)
	if err != nil {
		return err
	}
	res.Project, res.Tests, res.Git = f.project, f.tests, f.git
	data := g.renderData(f, kinds)

	planned := sets.New[string]()
	for _, kind := range kinds {
		planned.Add(g.cfg.OutputPath(kind))
	}

	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := g.plan(kind, data)
		if err != nil {
			return err
		}
		if doc.Status != StatusUnchanged {
			if res.DryRun {
				doc.Status = StatusSkipped
			} else if err := writeAtomic(doc.Path, doc.content); err != nil {
				return gderrors.WriteFailed(doc.Path, err)
			}
		}
		g.logger.Info("Document processed",
			logfields.RunID(res.RunID),
			logfields.Document(string(kind)),
			logfields.Path(doc.Path),
			logfields.Status(string(doc.Status)))
		res.Documents = append(res.Documents, doc)
	}

	for i := range res.Documents {
		doc := &res.Documents[i]
		doc.BrokenLinks = brokenLinks(doc.content, g.cfg.Output.Directory, planned)
		for _, b := range doc.BrokenLinks {
			g.logger.Warn("Broken relative link in generated document",
				logfields.Document(string(doc.Kind)),
				slog.String("link", b.Destination),
				logfields.Path(b.Target))
		}
	}
	return nil
}

// finish records metrics, history and the generation event. Failures here
// are logged and never fail the run.
func (g *Generator) finish(ctx context.Context, res *Result, runErr error) {
	res.Duration = g.now().Sub(res.StartedAt)

	outcome := metrics.OutcomeSuccess
	switch {
	case gderrors.IsCategory(runErr, gderrors.CategoryStale):
		outcome = metrics.OutcomeStale
	case runErr != nil:
		outcome = metrics.OutcomeFailure
	}

	g.recorder.ObserveRunDuration(res.Duration)
	g.recorder.IncRunOutcome(outcome)
	if res.Project != nil {
		g.recorder.SetScannedFiles(res.Project.TotalFiles())
	}
	if res.Tests != nil {
		g.recorder.SetTestCases(res.Tests.TotalCases)
	}
	for _, d := range res.Documents {
		g.recorder.IncDocument(string(d.Kind), string(d.Status))
	}
	g.writeTextfile()

	// Event and history writes should land even when the run was cancelled.
	bg := context.WithoutCancel(ctx)
	g.recordHistory(bg, res, string(outcome), runErr)
	if res.Command != CommandCheck {
		g.publish(bg, res, string(outcome))
	}
}

func (g *Generator) writeTextfile() {
	path := g.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	w, ok := g.recorder.(interface{ WriteTextfile(string) error })
	if !ok {
		return
	}
	if err := w.WriteTextfile(path); err != nil {
		g.logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

func (g *Generator) recordHistory(ctx context.Context, res *Result, outcome string, runErr error) {
	if g.history == nil {
		return
	}
	run := &history.Run{
		ID:        res.RunID,
		Command:   res.Command,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Outcome:   outcome,
		Project:   g.cfg.Project.Name,
		Root:      g.cfg.Project.Root,
		DryRun:    res.DryRun,
	}
	if res.Project != nil {
		run.Project = res.Project.Name
		run.Files = res.Project.TotalFiles()
	}
	if res.Tests != nil {
		run.TestCases = res.Tests.TotalCases
	}
	if res.Git != nil {
		run.Commit = res.Git.ShortCommit
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	for _, d := range res.Documents {
		run.Documents = append(run.Documents, history.Document{
			Kind:        string(d.Kind),
			Path:        d.Path,
			Status:      string(d.Status),
			Fingerprint: d.Fingerprint,
			Bytes:       d.Bytes,
		})
	}
	if err := g.history.Record(ctx, run); err != nil {
		g.logger.Warn("Failed to record run history", logfields.RunID(res.RunID), logfields.Error(gderrors.StoreError("record", err)))
	}
}

func (g *Generator) publish(ctx context.Context, res *Result, outcome string) {
	ev := &events.GeneratedEvent{
		RunID:     res.RunID,
		Root:      g.cfg.Project.Root,
		Outcome:   outcome,
		DryRun:    res.DryRun,
		Generator: version.Generator(),
		Timestamp: g.now().UTC(),
	}
	if res.Project != nil {
		ev.Project = res.Project.Name
	}
	if res.Git != nil {
		ev.Commit = res.Git.Commit
	}
	for _, d := range res.Documents {
		ev.Documents = append(ev.Documents, events.DocumentEvent{Kind: string(d.Kind), Path: d.Path, Status: string(d.Status)})
	}
	if err := g.publisher.Publish(ctx, ev); err != nil {
		g.logger.Warn("Failed to publish generation event", logfields.RunID(res.RunID), logfields.Error(err))
	}
}
