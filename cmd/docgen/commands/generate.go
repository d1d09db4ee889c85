package commands

import (
	"fmt"

	"git.home.luguber.info/inful/gendocs/internal/generator"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	TargetFlags `embed:""`

	DryRun bool `help:"Render and compare without writing any file"`
}

func (c *GenerateCmd) Run(g *Global, root *CLI) error {
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

	res, err := gen.Run(g.ctx(), generator.RunOptions{Documents: kinds, DryRun: c.DryRun, Command: generator.CommandGenerate})
	if err != nil {
		return err
	}
	printResult(g, cfg.Project.Root, res)
	return nil
}

// printResult lists every processed document and a one-line summary.
func printResult(g *Global, projectRoot string, res *generator.Result) {
	w := g.out()
	for _, d := range res.Documents {
		path := displayPath(projectRoot, d.Path)
		if d.Status == generator.StatusSkipped {
			path += " (would be " + string(d.WouldBe) + ")"
		}
		printStatus(w, string(d.Status), path)
		for _, b := range d.BrokenLinks {
			_, _ = yellow.Fprintf(w, "    broken link: %s\n", b.Destination)
		}
	}

	changed := len(res.Changed())
	switch {
	case res.DryRun && changed > 0:
		_, _ = fmt.Fprintf(w, "Dry run: %d of %d documents would change\n", changed, len(res.Documents))
	case res.DryRun:
		_, _ = fmt.Fprintf(w, "Dry run: all %d documents up to date\n", len(res.Documents))
	case changed > 0:
		_, _ = fmt.Fprintf(w, "%d of %d documents written\n", changed, len(res.Documents))
	default:
		_, _ = fmt.Fprintf(w, "All %d documents up to date\n", len(res.Documents))
	}
}
