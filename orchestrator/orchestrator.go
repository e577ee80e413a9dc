// Package orchestrator drives a loaded workflow graph to completion under
// a chosen strategy, rendering each action's arguments against a live
// outcome/status snapshot at the moment it is emitted and reporting
// progress through a pluggable display.Display sink.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/log"
	"github.com/pithecene-io/grana/metrics"
	"github.com/pithecene-io/grana/policy"
	"github.com/pithecene-io/grana/rendering"
	"github.com/pithecene-io/grana/strategy"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// RawArgs maps action name to its originally-loaded (pre-render)
// argument document. The orchestrator re-renders this same document on
// every emission; it never reuses a previous render (spec §4.5).
type RawArgs map[string]map[string]interface{}

// Config configures one Run.
type Config struct {
	// Strategy names one of the strategy package's registered variants.
	Strategy string
	// Interactive, when true, mediates action selection through the
	// display before any action is emitted.
	Interactive bool
	// StrictOutcomes controls whether the renderer raises on a missing
	// outcome key (strict) or substitutes an empty string (loose).
	StrictOutcomes bool
	// Context is the workflow-level context tree, exposed to templates
	// as `@{context...}`.
	Context map[string]interface{}
	// Environment is exposed to templates as `@{environment...}`.
	Environment map[string]string
	Args        RawArgs
	Logger      *log.Logger
	// Collector, if non-nil, records action/tier metrics for this run.
	// Nil-safe: every Collector method tolerates a nil receiver, so this
	// field may be left unset.
	Collector *metrics.Collector
	// EventPolicy names the policy package variant controlling how
	// action output is handed to disp (policy.Strict by default, so a
	// Config left at its zero value reproduces the old direct-emit
	// behavior). Use policy.Buffered or policy.Streaming when disp is
	// network-backed (webhookdisplay, redisdisplay) to avoid a round
	// trip per emitted line.
	EventPolicy string
	// EventBuffer is the batch-size trigger for Buffered/Streaming
	// event policies. <=0 defaults to the policy package's own default.
	EventBuffer int
	// EventFlushInterval is the time trigger for the Streaming event
	// policy. <=0 defaults to the policy package's own default.
	EventFlushInterval time.Duration
}

// Run drives g to completion under cfg, reporting through disp. It
// returns an execution-failed error if any non-warning action failed,
// and an interaction error if interactive selection cannot proceed.
func Run(ctx context.Context, g *workflow.Graph, disp display.Display, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger(log.Context{RunID: uuid.NewString(), Strategy: cfg.Strategy})
	}

	if err := disp.OnRunnerStart(); err != nil {
		logger.Sugar().Warnf("on_runner_start: %v", err)
	}

	if cfg.Interactive {
		if err := checkSelectionIntegrity(g); err != nil {
			return err
		}
		if err := disp.OnPlanInteraction(g); err != nil {
			return errs.Wrap(errs.KindInteraction, "plan interaction failed", err)
		}
	}

	state := newRunState(g.Order())

	it, err := strategy.New(cfg.Strategy, g)
	if err != nil {
		return errs.Wrap(errs.KindIntegrity, "unknown strategy", err)
	}

	eventPolicyName := cfg.EventPolicy
	if eventPolicyName == "" {
		eventPolicyName = policy.Strict
	}
	pol, err := policy.New(eventPolicyName, policy.NewDisplaySink(disp), cfg.EventBuffer, cfg.EventFlushInterval)
	if err != nil {
		return errs.Wrap(errs.KindIntegrity, "unknown event policy", err)
	}
	defer pol.Close()

	cfg.Collector.IncRunStarted()

	var wg sync.WaitGroup
	for {
		a, ok, nextErr := it.Next(ctx)
		if nextErr != nil || !ok {
			break
		}
		if !a.Enabled() {
			a.Omit()
			continue
		}
		cfg.Collector.StartTier(g.Tier(a.Name()))
		wg.Add(1)
		go func(a actions.Action) {
			defer wg.Done()
			dispatch(ctx, a, cfg, state, disp, pol, logger, g.Tier(a.Name()))
		}(a)
	}
	wg.Wait()

	if err := pol.Flush(ctx); err != nil {
		logger.Sugar().Warnf("event policy flush: %v", err)
	}

	if err := disp.OnRunnerFinish(); err != nil {
		logger.Sugar().Warnf("on_runner_finish: %v", err)
	}

	if state.isFailed() {
		cfg.Collector.IncRunFailed()
		return errs.New(errs.KindExecutionFailed, "one or more actions failed")
	}
	cfg.Collector.IncRunCompleted()
	return nil
}

// checkSelectionIntegrity enforces the two structural checks the
// orchestrator owns before handing control to the display's interactive
// dialog: at least one selectable action, and no two selectable actions
// sharing a "full description" (name + description).
func checkSelectionIntegrity(g *workflow.Graph) error {
	seen := make(map[string]string)
	count := 0
	for _, entry := range g.IterByTier() {
		if !entry.Action.Selectable() {
			continue
		}
		count++
		full := entry.Name + "\x00" + entry.Action.Description()
		if prior, ok := seen[full]; ok {
			return errs.New(errs.KindInteraction, "colliding full description between "+prior+" and "+entry.Name)
		}
		seen[full] = entry.Name
	}
	if count == 0 {
		return errs.New(errs.KindInteraction, "no selectable actions")
	}
	return nil
}

// dispatch carries one emitted action through render, start, and
// completion. It runs on its own goroutine so the pull loop in Run can
// keep iterating the strategy (which is itself responsible for
// dependency-aware concurrency) without serializing on this action's
// runtime.
func dispatch(ctx context.Context, a actions.Action, cfg Config, state *runState, disp display.Display, pol policy.Policy, logger *log.Logger, tier int) {
	name := a.Name()
	logger = logger.WithAction(name)
	a.OnTerminal(func() {
		state.record(name, a)
		cfg.Collector.IncActionTerminal(a.Status().String())
		cfg.Collector.FinishTier(tier)
	})

	outcomes, statuses := state.snapshot()
	t, err := rendering.NewTemplar(outcomes, statuses, cfg.Context, cfg.Environment, cfg.StrictOutcomes)
	if err != nil {
		logger.Sugar().Warnf("renderer setup failed: %v", err)
		failBeforeStart(a, disp, state, cfg.Collector, "building renderer: "+err.Error())
		return
	}

	rendered, err := t.RecursiveRender(copyArgs(cfg.Args[name]))
	if err != nil {
		logger.Sugar().Warnf("argument render failed: %v", err)
		failBeforeStart(a, disp, state, cfg.Collector, "rendering arguments: "+err.Error())
		return
	}
	renderedMap, ok := rendered.(map[string]interface{})
	if !ok {
		renderedMap = map[string]interface{}{}
	}
	if err := a.SetArgs(renderedMap); err != nil {
		failBeforeStart(a, disp, state, cfg.Collector, "invalid arguments: "+err.Error())
		return
	}

	disp.OnActionStart(a)
	cfg.Collector.IncActionStarted()

	var drained sync.WaitGroup
	drained.Add(1)
	go func() {
		defer drained.Done()
		for ev := range a.ReadEvents() {
			msg := policy.Message{Action: a, Text: ev.Message, Stderr: ev.Stderr}
			if err := pol.Ingest(ctx, msg); err != nil {
				logger.Sugar().Warnf("event policy ingest: %v", err)
			}
		}
	}()

	a.Start(ctx)
	if err := a.AwaitCompletion(ctx); err != nil {
		logger.Sugar().Warnf("action failed: %v", err)
		disp.EmitActionError(a, err.Error())
		state.flagFailed()
		cfg.Collector.IncRunError()
	} else if a.Status() == types.StatusWarning {
		if werr := a.LastError(); werr != nil {
			disp.EmitActionError(a, werr.Error())
		}
	}
	drained.Wait()
	disp.OnActionFinish(a)
}

// failBeforeStart handles a render or argument-validation failure (spec
// §4.5 step 4c): the action never starts, the run is flagged failed, and
// on_action_start/on_action_finish are never called for it.
func failBeforeStart(a actions.Action, disp display.Display, state *runState, collector *metrics.Collector, message string) {
	a.ForceFail(message)
	disp.EmitActionError(a, message)
	state.flagFailed()
	collector.IncRenderError()
}

func copyArgs(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
