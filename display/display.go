// Package display defines the event-sink contract the orchestrator drives
// a run through, plus the two bundled terminal flavors ("prefixes" and
// "headers") ported from the original implementation's ANSI-wrapped
// PrefixDisplay/HeaderDisplay onto github.com/charmbracelet/lipgloss
// styling.
package display

import (
	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// Display is the external sink contract (spec §6): any callback may
// return an error; the orchestrator logs it and continues, except for
// OnPlanInteraction, whose error aborts the run before any action starts.
type Display interface {
	OnRunnerStart() error
	OnRunnerFinish() error
	// OnPlanInteraction mediates interactive action selection: it must
	// call Disable on every action the user deselects, before returning.
	OnPlanInteraction(g *workflow.Graph) error
	OnActionStart(a actions.Action)
	OnActionFinish(a actions.Action)
	EmitActionMessage(a actions.Action, msg types.Event, stderr bool)
	EmitActionError(a actions.Action, msg string)
}

// BatchDisplay is an optional extension a Display may implement to accept
// every message drained for one action in a single call. A network-backed
// display (webhookdisplay, redisdisplay) implements this to coalesce a
// buffered/streaming policy's batch into one outbound request instead of
// one per line; terminal displays have no reason to implement it.
type BatchDisplay interface {
	EmitActionMessages(a actions.Action, msgs []types.EventItem)
}

// Names lists the bundled display flavors selectable by name.
const (
	Prefixes = "prefixes"
	Headers  = "headers"
)

// New builds the named bundled display over g, writing to stdout.
func New(name string, g *workflow.Graph) (Display, error) {
	switch name {
	case Prefixes:
		return newPrefixDisplay(g), nil
	case Headers:
		return newHeaderDisplay(g), nil
	default:
		return nil, &UnknownDisplayError{Name: name}
	}
}

// UnknownDisplayError is returned by New for an unrecognized display name.
type UnknownDisplayError struct{ Name string }

func (e *UnknownDisplayError) Error() string { return "unknown display: " + e.Name }
