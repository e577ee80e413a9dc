package policy_test

import (
	"testing"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/policy"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

type recordingDisplay struct {
	messages []types.Event
}

func (d *recordingDisplay) OnRunnerStart() error                      { return nil }
func (d *recordingDisplay) OnRunnerFinish() error                     { return nil }
func (d *recordingDisplay) OnPlanInteraction(g *workflow.Graph) error { return nil }
func (d *recordingDisplay) OnActionStart(a actions.Action)            {}
func (d *recordingDisplay) OnActionFinish(a actions.Action)           {}
func (d *recordingDisplay) EmitActionError(a actions.Action, msg string) {}
func (d *recordingDisplay) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {
	d.messages = append(d.messages, msg)
}

func TestDisplaySink_WritesEveryMessageInOrder(t *testing.T) {
	d := &recordingDisplay{}
	sink := policy.NewDisplaySink(d)

	msgs := []policy.Message{
		{Text: types.Event("one")},
		{Text: types.Event("two")},
	}
	if err := sink.Write(t.Context(), msgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.messages) != 2 || d.messages[0] != "one" || d.messages[1] != "two" {
		t.Errorf("unexpected recorded messages: %v", d.messages)
	}
}

func TestDisplaySink_CloseIsNoop(t *testing.T) {
	sink := policy.NewDisplaySink(&recordingDisplay{})
	if err := sink.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
