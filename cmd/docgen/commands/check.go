package commands

import (
	"fmt"

	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	TargetFlags `embed:""`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	kinds, err := c.apply(cfg)
	if err != nil {
		return err
	}

	gen, cleanup, err := buildGenerator(cfg, g.logger())
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := gen.Check(g.ctx(), kinds)
	if res != nil {
		w := g.out()
		for _, d := range res.Documents {
			printStatus(w, string(d.State()), displayPath(cfg.Project.Root, d.Path))
		}
	}
	if err != nil {
		if staleCount(err) > 0 {
			_, _ = yellow.Fprintln(g.out(), describeStale(err))
		}
		return err
	}
	_, _ = green.Fprintf(g.out(), "All %d documents up to date\n", len(res.Documents))
	return nil
}

// staleCount returns how many documents a stale error names.
func staleCount(err error) int {
	ce, ok := gderrors.As(err)
	if !ok || ce.Category != gderrors.CategoryStale {
		return 0
	}
	paths, _ := ce.Context["documents"].([]string)
	return len(paths)
}

// describeStale is the one-line summary printed before a stale exit.
func describeStale(err error) string {
	n := staleCount(err)
	verb := "need"
	if n == 1 {
		verb = "needs"
	}
	return fmt.Sprintf("%s %s regeneration (run 'docgen generate')", plural(n, "document"), verb)
}
