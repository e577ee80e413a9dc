package policy

import (
	"context"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/display"
	"github.com/pithecene-io/grana/types"
)

// DisplaySink adapts a display.Display into a Sink, so the orchestrator
// can run any event-delivery policy (strict/buffered/streaming) over the
// same terminal, webhook, or Redis display it already has. EmitActionMessage
// never reports failure back to the caller, so Write always succeeds;
// network-backed displays are expected to handle their own retries.
type DisplaySink struct {
	disp display.Display
}

// NewDisplaySink wraps disp as a Sink.
func NewDisplaySink(disp display.Display) *DisplaySink {
	return &DisplaySink{disp: disp}
}

// Write delivers msgs to the display. When disp implements
// display.BatchDisplay, consecutive messages for the same action are
// coalesced into one EmitActionMessages call, so a buffered/streaming
// policy actually saves the network-backed displays a round trip per
// line instead of just deferring it.
func (s *DisplaySink) Write(_ context.Context, msgs []Message) error {
	batch, ok := s.disp.(display.BatchDisplay)
	if !ok {
		for _, msg := range msgs {
			s.disp.EmitActionMessage(msg.Action, msg.Text, msg.Stderr)
		}
		return nil
	}

	var run actions.Action
	var group []types.EventItem
	flush := func() {
		if len(group) > 0 {
			batch.EmitActionMessages(run, group)
			group = nil
		}
	}
	for _, msg := range msgs {
		if msg.Action != run {
			flush()
			run = msg.Action
		}
		group = append(group, types.EventItem{Message: msg.Text, Stderr: msg.Stderr})
	}
	flush()
	return nil
}

// Close is a no-op; display.Display has no teardown of its own.
func (s *DisplaySink) Close() error { return nil }
