package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/gendocs/cmd/docgen/commands"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docgen"),
		kong.Description("Generate and check the project's core documents"),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	global := &commands.Global{Context: ctx, Out: os.Stdout}
	err := parser.Run(global, cli)

	logger := global.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return gderrors.NewCLIErrorAdapter(cli.Verbose, logger).Handle(err)
}
