package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// testRunnable lets a test control exactly how an action body completes.
type testRunnable struct {
	fail string
}

func (r *testRunnable) Run(ctx context.Context) error {
	if r.fail != "" {
		return &actions.RunError{Message: r.fail}
	}
	return nil
}

func newAction(name string, ancestors map[string]types.Dependency, fail string, severity types.ActionSeverity) *actions.Base {
	return actions.NewBase(name, ancestors, "", true, severity, &testRunnable{fail: fail})
}

func buildGraph(t *testing.T, order []string, acts map[string]actions.Action) *workflow.Graph {
	t.Helper()
	g, err := workflow.NewGraph(order, acts)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

// recordingDisplay is a minimal display.Display fixture that records
// every callback invocation for assertion.
type recordingDisplay struct {
	mu            sync.Mutex
	started       []string
	finished      []string
	errors        []string
	runnerStarted bool
	runnerEnded   bool
	interactionFn func(g *workflow.Graph) error
}

func (d *recordingDisplay) OnRunnerStart() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runnerStarted = true
	return nil
}

func (d *recordingDisplay) OnRunnerFinish() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runnerEnded = true
	return nil
}

func (d *recordingDisplay) OnPlanInteraction(g *workflow.Graph) error {
	if d.interactionFn != nil {
		return d.interactionFn(g)
	}
	return nil
}

func (d *recordingDisplay) OnActionStart(a actions.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = append(d.started, a.Name())
}

func (d *recordingDisplay) OnActionFinish(a actions.Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished = append(d.finished, a.Name())
}

func (d *recordingDisplay) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {}

func (d *recordingDisplay) EmitActionError(a actions.Action, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, a.Name()+": "+msg)
}

var _ display.Display = (*recordingDisplay)(nil)

func TestRunFreeStrategyAllSucceed(t *testing.T) {
	a := newAction("a", nil, "", types.SeverityNormal)
	b := newAction("b", nil, "", types.SeverityNormal)
	g := buildGraph(t, []string{"a", "b"}, map[string]actions.Action{"a": a, "b": b})
	disp := &recordingDisplay{}

	err := Run(context.Background(), g, disp, Config{Strategy: "free"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !disp.runnerStarted || !disp.runnerEnded {
		t.Fatalf("expected runner start/finish callbacks")
	}
	if len(disp.started) != 2 || len(disp.finished) != 2 {
		t.Fatalf("started=%v finished=%v, want 2 each", disp.started, disp.finished)
	}
	if a.Status() != types.StatusSuccess || b.Status() != types.StatusSuccess {
		t.Fatalf("a=%v b=%v, want both SUCCESS", a.Status(), b.Status())
	}
}

func TestRunFlagsFailedOnActionFailure(t *testing.T) {
	a := newAction("a", nil, "boom", types.SeverityNormal)
	g := buildGraph(t, []string{"a"}, map[string]actions.Action{"a": a})
	disp := &recordingDisplay{}

	err := Run(context.Background(), g, disp, Config{Strategy: "free"})
	if !errs.IsExecutionFailedError(err) {
		t.Fatalf("Run err = %v, want execution-failed", err)
	}
	if a.Status() != types.StatusFailure {
		t.Fatalf("a = %v, want FAILURE", a.Status())
	}
	if len(disp.errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", disp.errors)
	}
}

func TestRunWarningDoesNotFailRun(t *testing.T) {
	a := newAction("a", nil, "boom", types.SeverityLow)
	g := buildGraph(t, []string{"a"}, map[string]actions.Action{"a": a})
	disp := &recordingDisplay{}

	err := Run(context.Background(), g, disp, Config{Strategy: "free"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Status() != types.StatusWarning {
		t.Fatalf("a = %v, want WARNING", a.Status())
	}
	if len(disp.errors) != 1 {
		t.Fatalf("errors = %v, want one EmitActionError call for the warning", disp.errors)
	}
}

func TestRunOmitsDisabledAction(t *testing.T) {
	a := newAction("a", nil, "", types.SeverityNormal)
	if err := a.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	g := buildGraph(t, []string{"a"}, map[string]actions.Action{"a": a})
	disp := &recordingDisplay{}

	if err := Run(context.Background(), g, disp, Config{Strategy: "free"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Status() != types.StatusOmitted {
		t.Fatalf("a = %v, want OMITTED", a.Status())
	}
	if len(disp.started) != 0 {
		t.Fatalf("expected no on_action_start calls for an omitted action, got %v", disp.started)
	}
}

func TestCheckSelectionIntegrityNoSelectable(t *testing.T) {
	a := actions.NewBase("a", nil, "", false, types.SeverityNormal, &testRunnable{})
	g := buildGraph(t, []string{"a"}, map[string]actions.Action{"a": a})
	disp := &recordingDisplay{}

	err := Run(context.Background(), g, disp, Config{Strategy: "free", Interactive: true})
	if !errs.IsInteractionError(err) {
		t.Fatalf("err = %v, want interaction error", err)
	}
}

// Two actions sharing a description but not a name is not a collision:
// the action name itself (already unique by construction) is part of
// the "full description", so interactive selection must proceed.
func TestCheckSelectionIntegrityAllowsSharedDescription(t *testing.T) {
	a := actions.NewBase("a", nil, "same", true, types.SeverityNormal, &testRunnable{})
	b := actions.NewBase("b", nil, "same", true, types.SeverityNormal, &testRunnable{})
	g := buildGraph(t, []string{"a", "b"}, map[string]actions.Action{"a": a, "b": b})
	disp := &recordingDisplay{interactionFn: func(g *workflow.Graph) error { return nil }}

	if err := Run(context.Background(), g, disp, Config{Strategy: "free", Interactive: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
