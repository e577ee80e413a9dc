// Package cmd provides CLI commands for the grana binary.
package cmd

import "github.com/urfave/cli/v2"

// workflowFlags are the flags shared by every subcommand that loads a
// workflow document before doing anything else.
func workflowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "workflow",
			Aliases: []string{"w"},
			Usage:   "Path to the workflow YAML document, or an s3://bucket/key source",
			Value:   "grana.yaml",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to a grana.yaml config file (project-level defaults)",
		},
	}
}

// runFlags extends workflowFlags with the flags that shape an actual run.
func runFlags() []cli.Flag {
	return append(workflowFlags(),
		&cli.StringFlag{
			Name:  "strategy",
			Usage: "Execution strategy: free, sequential, strict-sequential, loose, strict",
		},
		&cli.StringFlag{
			Name:  "display",
			Usage: "Terminal display flavor: prefixes, headers",
		},
		&cli.BoolFlag{
			Name:  "strict-outcomes",
			Usage: "Fail a render when a referenced outcome key is missing, instead of substituting empty",
		},
		&cli.BoolFlag{
			Name:  "interactive",
			Usage: "Prompt to select which actions to run before starting",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Write a run report in this format: json, msgpack",
		},
		&cli.StringFlag{
			Name:  "report-path",
			Usage: "Run report destination: a local path or an s3://bucket/key URL",
		},
		&cli.StringFlag{
			Name:  "webhook-url",
			Usage: "POST action lifecycle events to this URL",
		},
		&cli.StringFlag{
			Name:  "redis-url",
			Usage: "PUBLISH action lifecycle events to this Redis URL",
		},
		&cli.StringFlag{
			Name:  "redis-channel",
			Usage: "Redis channel for --redis-url (default grana:run)",
		},
	)
}
