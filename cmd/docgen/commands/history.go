package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" default:"10" help:"Number of runs to show"`
	ID    string `arg:"" optional:"" help:"Show the documents of a single run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return gderrors.ValidationFailed("history.database", "no history database configured")
	}

	store, err := history.Open(cfg.History.Database)
	if err != nil {
		return gderrors.StoreError("open", err)
	}
	defer func() {
		_ = store.Close()
	}()

	ctx := g.ctx()
	w := g.out()
	if h.ID != "" {
		run, err := store.Get(ctx, h.ID)
		if errors.Is(err, history.ErrNotFound) {
			return gderrors.ValidationFailed("id", "no run with id "+h.ID)
		}
		if err != nil {
			return gderrors.StoreError("get", err)
		}
		printRunDetail(w, run)
		return nil
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return gderrors.StoreError("recent", err)
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded")
		return nil
	}
	for i := range runs {
		printRunLine(w, &runs[i])
	}
	return nil
}

func printRunLine(w io.Writer, run *history.Run) {
	changed := 0
	for _, d := range run.Documents {
		if d.Status == "created" || d.Status == "updated" || d.Status == "skipped" {
			changed++
		}
	}
	_, _ = faint.Fprintf(w, "%s  ", run.ID)
	_, _ = fmt.Fprintf(w, "%s  %-8s ", run.StartedAt.Local().Format(time.DateTime), run.Command)
	_, _ = colorFor(run.Outcome).Fprintf(w, "%-7s", run.Outcome)
	_, _ = fmt.Fprintf(w, "  %d/%d changed  %s\n", changed, len(run.Documents), run.Duration.Round(time.Millisecond))
}

func printRunDetail(w io.Writer, run *history.Run) {
	_, _ = bold.Fprintf(w, "Run %s\n", run.ID)
	_, _ = fmt.Fprintf(w, "  command:    %s\n", run.Command)
	_, _ = fmt.Fprintf(w, "  started:    %s\n", run.StartedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "  duration:   %s\n", run.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprint(w, "  outcome:    ")
	_, _ = colorFor(run.Outcome).Fprintln(w, run.Outcome)
	_, _ = fmt.Fprintf(w, "  project:    %s\n", run.Project)
	if run.Commit != "" {
		_, _ = fmt.Fprintf(w, "  commit:     %s\n", run.Commit)
	}
	_, _ = fmt.Fprintf(w, "  files:      %d\n", run.Files)
	_, _ = fmt.Fprintf(w, "  test cases: %d\n", run.TestCases)
	if run.DryRun {
		_, _ = fmt.Fprintln(w, "  dry run:    yes")
	}
	if run.Error != "" {
		_, _ = red.Fprintf(w, "  error:      %s\n", run.Error)
	}
	for _, d := range run.Documents {
		printStatus(w, d.Status, displayPath(run.Root, d.Path))
	}
}
