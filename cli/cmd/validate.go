package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/grana/loader"
)

// ValidateCommand returns the `validate` command: loads a workflow
// document and its graph, reporting integrity errors, without running
// anything. A read-only counterpart to `run`.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:   "validate",
		Usage:  "Load a workflow document and report integrity errors without running it",
		Flags:  workflowFlags(),
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	source := c.String("workflow")
	doc, err := loader.LoadSource(context.Background(), source)
	if err != nil {
		return err
	}
	if err := checkPackageRequirement(doc); err != nil {
		return err
	}
	g, err := doc.Graph()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d action(s), %d tier(s), %d entrypoint(s)\n",
		source, len(g.Order()), g.TierCount(), len(g.Entrypoints()))
	return nil
}
