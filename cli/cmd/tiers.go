package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/grana/loader"
)

// TiersCommand returns the `tiers` command: prints the workflow's
// iter_by_tier() layering without executing anything, the Go counterpart
// of original_source's test fixtures that assert tier numbers directly.
func TiersCommand() *cli.Command {
	return &cli.Command{
		Name:   "tiers",
		Usage:  "Print the dependency-tier layering of a workflow without running it",
		Flags:  workflowFlags(),
		Action: tiersAction,
	}
}

func tiersAction(c *cli.Context) error {
	source := c.String("workflow")
	doc, err := loader.LoadSource(context.Background(), source)
	if err != nil {
		return err
	}
	g, err := doc.Graph()
	if err != nil {
		return err
	}
	for _, entry := range g.IterByTier() {
		fmt.Printf("%d\t%s\n", entry.Tier, entry.Name)
	}
	return nil
}
