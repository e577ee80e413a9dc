package actions

import (
	"context"
	"testing"
	"time"

	"github.com/pithecene-io/grana/types"
)

func drainEvents(t *testing.T, a *Base) []types.Event {
	t.Helper()
	var out []types.Event
	for ev := range a.ReadEvents() {
		out = append(out, ev.Message)
	}
	return out
}

func TestEchoHappyPath(t *testing.T) {
	e := NewEchoAction("echo-0", EchoArgs{Message: "foo"}, nil, "", true, types.SeverityNormal)
	ctx := context.Background()
	e.Start(ctx)

	events := drainEvents(t, e.Base)
	if err := e.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion: %v", err)
	}
	if got := e.Status(); got != types.StatusSuccess {
		t.Fatalf("status = %v, want SUCCESS", got)
	}
	if len(events) != 1 || events[0] != "foo" {
		t.Fatalf("events = %v, want [foo]", events)
	}
}

func TestBaseFailNormalSeverity(t *testing.T) {
	runnable := &failingRunnable{msg: "boom"}
	b := NewBase("a", nil, "", true, types.SeverityNormal, runnable)
	ctx := context.Background()
	b.Start(ctx)
	err := b.AwaitCompletion(ctx)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := b.Status(); got != types.StatusFailure {
		t.Fatalf("status = %v, want FAILURE", got)
	}
}

func TestBaseFailLowSeverityDoesNotErrorAwait(t *testing.T) {
	runnable := &failingRunnable{msg: "boom"}
	b := NewBase("a", nil, "", true, types.SeverityLow, runnable)
	ctx := context.Background()
	b.Start(ctx)
	if err := b.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion should succeed for WARNING, got %v", err)
	}
	if got := b.Status(); got != types.StatusWarning {
		t.Fatalf("status = %v, want WARNING", got)
	}
}

func TestBaseSkip(t *testing.T) {
	runnable := &skippingRunnable{}
	b := NewBase("a", nil, "", true, types.SeverityNormal, runnable)
	runnable.base = b
	ctx := context.Background()
	b.Start(ctx)
	if err := b.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion should succeed for SKIPPED, got %v", err)
	}
	if got := b.Status(); got != types.StatusSkipped {
		t.Fatalf("status = %v, want SKIPPED", got)
	}
	if !b.Done() {
		t.Fatalf("expected done")
	}
}

func TestBaseDisableOnlyWhilePending(t *testing.T) {
	runnable := &blockingRunnable{release: make(chan struct{})}
	b := NewBase("a", nil, "", true, types.SeverityNormal, runnable)
	ctx := context.Background()
	b.Start(ctx)
	// Give the body a moment to transition to RUNNING.
	time.Sleep(10 * time.Millisecond)
	if err := b.Disable(); err == nil {
		t.Fatalf("expected Disable to fail while RUNNING")
	}
	close(runnable.release)
	_ = b.AwaitCompletion(ctx)
}

func TestBaseDisableWhilePending(t *testing.T) {
	b := NewBase("a", nil, "", true, types.SeverityNormal, nil)
	if err := b.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if b.Enabled() {
		t.Fatalf("expected disabled")
	}
}

func TestYieldOutcomeVisibleAfterCompletion(t *testing.T) {
	runnable := &yieldingRunnable{key: "k", value: "v"}
	b := NewBase("a", nil, "", true, types.SeverityNormal, runnable)
	runnable.base = b
	ctx := context.Background()
	b.Start(ctx)
	if err := b.AwaitCompletion(ctx); err != nil {
		t.Fatalf("AwaitCompletion: %v", err)
	}
	outcomes := b.GetOutcomes()
	if outcomes["k"] != "v" {
		t.Fatalf("outcomes = %v, want k=v", outcomes)
	}
}

type failingRunnable struct{ msg string }

func (r *failingRunnable) Run(ctx context.Context) error {
	return &RunError{Message: r.msg}
}

type skippingRunnable struct {
	base *Base
}

func (r *skippingRunnable) Run(ctx context.Context) error {
	r.base.Skip()
	return nil
}

type blockingRunnable struct {
	release chan struct{}
}

func (r *blockingRunnable) Run(ctx context.Context) error {
	<-r.release
	return nil
}

type yieldingRunnable struct {
	key, value string
	base       *Base
}

func (r *yieldingRunnable) Run(ctx context.Context) error {
	r.base.YieldOutcome(r.key, r.value)
	return nil
}
