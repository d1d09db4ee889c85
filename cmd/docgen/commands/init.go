package commands

import (
	"fmt"

	"git.home.luguber.info/inful/gendocs/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	w := g.out()
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		_, _ = red.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = green.Fprintln(w, "Initialized successfully")
	return nil
}
