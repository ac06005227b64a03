package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/takeoff/internal/cli"
	"github.com/alexanderramin/takeoff/internal/config"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Rendered markdown only makes sense on a terminal.
	app := &cli.App{
		Markdown: interactive,
		Connect: func(ctx context.Context, cfg *config.Config) (*cli.Stores, error) {
			return cli.OpenStores(ctx, cfg, os.Stderr)
		},
	}
	defer app.Close()

	return cli.NewRootCmd(app).Execute()
}
