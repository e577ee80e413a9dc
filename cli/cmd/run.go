package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/display/redisdisplay"
	"github.com/pithecene-io/grana/display/webhookdisplay"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/loader"
	"github.com/pithecene-io/grana/log"
	"github.com/pithecene-io/grana/metrics"
	"github.com/pithecene-io/grana/orchestrator"
	"github.com/pithecene-io/grana/report"
	"github.com/pithecene-io/grana/workflow"
)

// RunCommand returns the `run` command: the only subcommand that executes
// a workflow (the read-only commands are validate, tiers, version).
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Load a workflow document and execute it",
		Flags:  runFlags(),
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadOptionalConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	source := c.String("workflow")
	doc, err := loader.LoadSource(ctx, source)
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

	runID := uuid.NewString()
	strategyName := resolveString(c, "strategy", cfg.strategy())
	logger := log.NewLogger(log.Context{RunID: runID, Workflow: source, Strategy: strategyName})

	disp, err := buildDisplay(c, cfg, g, runID, source)
	if err != nil {
		return errs.Wrap(errs.KindIntegrity, "constructing display", err)
	}
	if closer, ok := disp.(io.Closer); ok {
		defer closer.Close()
	}

	collector := metrics.NewCollector(strategyName, source, runID)

	orchCfg := orchestrator.Config{
		Strategy:       strategyName,
		Interactive:    resolveBool(c, "interactive", cfg.interactive()),
		StrictOutcomes: resolveBool(c, "strict-outcomes", cfg.strictOutcomes()),
		Context:        doc.Context,
		Environment:    environMap(),
		Args:           doc.Args,
		Logger:         logger,
		Collector:      collector,
	}

	runErr := orchestrator.Run(ctx, g, disp, orchCfg)

	reportFormat := resolveString(c, "report-format", cfg.reportFormat())
	reportPath := resolveString(c, "report-path", cfg.reportPath())
	if reportFormat != "" || reportPath != "" {
		rep := report.Build(g, runID, source, strategyName, errs.IsExecutionFailedError(runErr))
		if werr := report.Write(ctx, rep, report.Format(reportFormat), reportPath); werr != nil {
			logger.Sugar().Warnf("writing run report: %v", werr)
		}
	}

	if runErr != nil {
		var classified *errs.Error
		if errors.As(runErr, &classified) {
			return cli.Exit(classified.Error(), classified.ExitCode())
		}
		return runErr
	}
	return nil
}

// buildDisplay selects the display a run reports through: a network
// notifier when --webhook-url/--redis-url is set (mutually exclusive;
// --webhook-url takes precedence when both are given), otherwise one of
// the bundled terminal flavors.
func buildDisplay(c *cli.Context, cfg *resolvedConfig, g *workflow.Graph, runID, workflowName string) (display.Display, error) {
	webhookURL := resolveString(c, "webhook-url", cfg.webhookURL())
	redisURL := resolveString(c, "redis-url", cfg.redisURL())

	switch {
	case webhookURL != "":
		return webhookdisplay.New(webhookdisplay.Config{
			URL:      webhookURL,
			Headers:  cfg.webhookHeaders(),
			Timeout:  cfg.webhookTimeout(),
			Retries:  cfg.webhookRetries(),
			RunID:    runID,
			Workflow: workflowName,
		})
	case redisURL != "":
		return redisdisplay.New(redisdisplay.Config{
			URL:      redisURL,
			Channel:  resolveString(c, "redis-channel", cfg.redisChannel()),
			RunID:    runID,
			Workflow: workflowName,
		})
	default:
		name := resolveString(c, "display", cfg.display())
		if name == "" {
			name = display.Prefixes
		}
		return display.New(name, g)
	}
}

// environMap captures the process environment as the flat string map
// templates see under `@{environment...}`.
func environMap() map[string]string {
	env := os.Environ()
	out := make(map[string]string, len(env))
	for _, kv := range env {
		for i := range kv {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}
