// Package main provides the grana CLI entrypoint.
//
// grana loads a declarative workflow document, builds its dependency
// graph, and drives it to completion through one of five execution
// strategies. `run` is the only subcommand that executes anything; the
// rest (validate, tiers, version) are read-only.
//
// Usage:
//
//	grana <command> [options]
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/grana/cli/cmd"
	"github.com/pithecene-io/grana/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "grana",
		Usage:          "Dependency-aware declarative workflow runner",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.ValidateCommand(),
			cmd.TiersCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() (used throughout
// the errs package's Kind-to-exit-code mapping) instead of collapsing
// every error to exit status 1.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
