package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/grana/types"
)

// VersionCommand returns the `version` command. It reports the canonical
// grana version, the same value context.requires bounds are checked
// against; it never loads a workflow.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ *cli.Context) error {
			fmt.Printf("grana %s (commit: %s)\n", types.Version, commit)
			return nil
		},
	}
}
