// Package actions defines the action contract: the state machine, event
// stream, and outcome bookkeeping shared by every action kind, plus the
// bundled echo and shell actions.
package actions

import (
	"context"

	"github.com/pithecene-io/grana/types"
)

// Action is the external contract the core requires from any action
// implementation, regardless of kind.
type Action interface {
	// Name is the unique, non-empty action name.
	Name() string
	// Description is an optional human-readable label.
	Description() string
	// Selectable governs whether interactive mode may offer this action
	// for disabling.
	Selectable() bool
	// Severity governs what terminal status a failure maps to.
	Severity() types.ActionSeverity
	// Ancestors is the (already-pruned) dependency map.
	Ancestors() map[string]types.Dependency

	// Status returns the current status.
	Status() types.ActionStatus
	// Enabled reports whether the action is still enabled, that is, Disable
	// has not been called.
	Enabled() bool
	// Disable marks the action as not planned for launch. Legal only while
	// PENDING.
	Disable() error
	// Omit transitions a disabled, not-yet-emitted action to OMITTED.
	// Called by the orchestrator immediately before it would otherwise
	// emit the action.
	Omit()
	// ForceSkip transitions a not-yet-started action straight to SKIPPED.
	// Called by strategies implementing dependency-failure propagation.
	ForceSkip()
	// ForceFail transitions a not-yet-started action straight to its
	// failure terminal. Called by the orchestrator when rendering or
	// validating this action's arguments fails before Start is reached.
	ForceFail(message string)
	// OnTerminal registers fn to run synchronously, exactly once, the
	// moment this action first reaches a terminal status — before its
	// completion signal becomes observable. The orchestrator uses this to
	// establish outcome visibility ordering (spec §5).
	OnTerminal(fn func())
	// SetArgs decodes and validates a rendered argument document into
	// this action kind's typed argument struct, replacing whatever
	// placeholder arguments the action was constructed with. Called by
	// the orchestrator once per emission, after rendering and before
	// Start.
	SetArgs(rendered map[string]interface{}) error

	// GetOutcomes returns all outcomes yielded so far.
	GetOutcomes() types.OutcomeMap

	// Done reports whether the action has reached a terminal status.
	Done() bool
	// Completion returns a channel closed exactly once, when the action
	// reaches a terminal status. Safe for any number of observers.
	Completion() <-chan struct{}
	// AwaitCompletion blocks until Completion fires (or ctx is done) and
	// returns the stored run error for FAILURE, nil otherwise (including
	// WARNING, SKIPPED, and OMITTED).
	AwaitCompletion(ctx context.Context) error

	// LastError returns the error recorded by Fail/ForceFail regardless of
	// whether severity downgraded the terminal status to WARNING, nil
	// otherwise. The orchestrator uses this to report a WARNING action's
	// failure message without flagging the run failed.
	LastError() error

	// ReadEvents returns a channel delivering every event emitted by the
	// action body, in emission order, closing once the action is done and
	// the buffer is drained. Single-consumer.
	ReadEvents() <-chan types.EventItem

	// Start launches the action body on its own goroutine, transitioning
	// PENDING -> RUNNING. Calling Start on a non-PENDING action is a no-op.
	Start(ctx context.Context)
}

// Runnable is implemented by concrete action kinds: the body invoked once
// the runtime has transitioned the action to RUNNING. Implementations call
// back into the owning Base (embedded by value) to Emit, YieldOutcome,
// Skip, or Fail.
type Runnable interface {
	Run(ctx context.Context) error
}
