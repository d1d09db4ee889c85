package commands

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/gendocs/internal/generator"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	TargetFlags `embed:""`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	kinds, err := c.apply(cfg)
	if err != nil {
		return err
	}
	logger := g.logger()

	gen, cleanup, err := buildGenerator(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := g.ctx()
	regenerate := func(ctx context.Context, reason string) error {
		res, err := gen.Run(ctx, generator.RunOptions{Documents: kinds, Command: generator.CommandWatch})
		if err != nil {
			return err
		}
		if len(res.Changed()) > 0 || reason == "initial" {
			printResult(g, cfg.Project.Root, res)
		}
		return nil
	}

	if err := regenerate(ctx, "initial"); err != nil {
		return err
	}

	w, err := watch.New(watch.OptionsFromConfig(cfg, logger), regenerate)
	if err != nil {
		return err
	}
	logger.Info("Watching for changes", logfields.Path(cfg.Project.Root))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Watch stopped")
	return nil
}
