package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// testRunnable lets a test control exactly when and how an action body
// completes.
type testRunnable struct {
	release chan struct{}
	fail    string
}

func (r *testRunnable) Run(ctx context.Context) error {
	if r.release != nil {
		<-r.release
	}
	if r.fail != "" {
		return &actions.RunError{Message: r.fail}
	}
	return nil
}

func newAction(name string, ancestors map[string]types.Dependency, fail string) *actions.Base {
	r := &testRunnable{fail: fail}
	return actions.NewBase(name, ancestors, "", true, types.SeverityNormal, r)
}

func buildGraph(t *testing.T, order []string, acts map[string]actions.Action) *workflow.Graph {
	t.Helper()
	g, err := workflow.NewGraph(order, acts)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func drainAll(t *testing.T, s Iterator, start func(actions.Action)) []string {
	t.Helper()
	ctx := context.Background()
	var emitted []string
	for {
		a, ok, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return emitted
		}
		emitted = append(emitted, a.Name())
		start(a)
	}
}

func TestFreeEmitsAllImmediately(t *testing.T) {
	a := newAction("a", nil, "")
	b := newAction("b", nil, "")
	g := buildGraph(t, []string{"a", "b"}, map[string]actions.Action{"a": a, "b": b})
	s := newFree(g)
	got := drainAll(t, s, func(a actions.Action) {})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("emitted = %v, want [a b]", got)
	}
}

func TestSequentialAwaitsBetweenEmissions(t *testing.T) {
	a := newAction("a", nil, "")
	b := newAction("b", nil, "")
	g := buildGraph(t, []string{"a", "b"}, map[string]actions.Action{"a": a, "b": b})
	s := newSequential(g, false)
	ctx := context.Background()

	got, ok, err := s.Next(ctx)
	if err != nil || !ok || got.Name() != "a" {
		t.Fatalf("first Next = %v, %v, %v", got, ok, err)
	}
	a.Start(ctx)

	got, ok, err = s.Next(ctx)
	if err != nil || !ok || got.Name() != "b" {
		t.Fatalf("second Next = %v, %v, %v", got, ok, err)
	}
	b.Start(ctx)

	_, ok, err = s.Next(ctx)
	if err != nil || ok {
		t.Fatalf("expected done, got ok=%v err=%v", ok, err)
	}
}

func TestStrictSequentialSkipsAfterFailure(t *testing.T) {
	a := newAction("a", nil, "boom")
	b := newAction("b", nil, "")
	c := newAction("c", nil, "")
	g := buildGraph(t, []string{"a", "b", "c"}, map[string]actions.Action{"a": a, "b": b, "c": c})
	s := newSequential(g, true)
	ctx := context.Background()

	got, ok, err := s.Next(ctx)
	if err != nil || !ok || got.Name() != "a" {
		t.Fatalf("first Next: %v %v %v", got, ok, err)
	}
	a.Start(ctx)
	_ = a.AwaitCompletion(ctx)

	_, ok, err = s.Next(ctx)
	if err != nil || ok {
		t.Fatalf("expected drain-to-done, got ok=%v err=%v", ok, err)
	}
	if b.Status() != types.StatusSkipped || c.Status() != types.StatusSkipped {
		t.Fatalf("b=%v c=%v, want both SKIPPED", b.Status(), c.Status())
	}
}

func TestLooseWaitsForAncestors(t *testing.T) {
	foo := newAction("Foo", nil, "")
	bar := newAction("Bar", map[string]types.Dependency{"Foo": {Strict: false}}, "")
	g := buildGraph(t, []string{"Foo", "Bar"}, map[string]actions.Action{"Foo": foo, "Bar": bar})
	s := newLoose(g, false)
	ctx := context.Background()

	a, ok, err := s.Next(ctx)
	if err != nil || !ok || a.Name() != "Foo" {
		t.Fatalf("first ready = %v %v %v", a, ok, err)
	}
	foo.Start(ctx)

	// Bar isn't ready until Foo completes; Next blocks until then.
	done := make(chan struct{})
	var got actions.Action
	go func() {
		got, _, _ = s.Next(ctx)
		close(done)
	}()
	select {
	case <-done:
		t.Fatalf("Bar emitted before Foo completed")
	case <-time.After(20 * time.Millisecond):
	}
	_ = foo.AwaitCompletion(ctx)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Bar never emitted after Foo completed")
	}
	if got.Name() != "Bar" {
		t.Fatalf("got %v, want Bar", got.Name())
	}
}

func TestLooseStrictChainSkipsOnFailure(t *testing.T) {
	foo := newAction("Foo", nil, "boom")
	bar := newAction("Bar", map[string]types.Dependency{"Foo": {Strict: true}}, "")
	baz := newAction("Baz", map[string]types.Dependency{"Bar": {Strict: true}}, "")
	g := buildGraph(t, []string{"Foo", "Bar", "Baz"}, map[string]actions.Action{"Foo": foo, "Bar": bar, "Baz": baz})
	s := newLoose(g, false)
	ctx := context.Background()

	emitted := drainAll(t, s, func(a actions.Action) {
		a.(*actions.Base).Start(ctx)
	})
	if len(emitted) != 1 || emitted[0] != "Foo" {
		t.Fatalf("emitted = %v, want only [Foo]", emitted)
	}
	if foo.Status() != types.StatusFailure {
		t.Fatalf("Foo = %v, want FAILURE", foo.Status())
	}
	if bar.Status() != types.StatusSkipped || baz.Status() != types.StatusSkipped {
		t.Fatalf("Bar=%v Baz=%v, want both SKIPPED", bar.Status(), baz.Status())
	}
}
