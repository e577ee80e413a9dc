package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/pithecene-io/grana/log"
	"github.com/pithecene-io/grana/types"
)

// Base implements the Action contract's bookkeeping: the status state
// machine, the single-shot completion signal, the emission-ordered event
// queue, and outcome storage. Concrete action kinds embed *Base and supply
// a Runnable body.
//
// Base corresponds to the source's ActionBase: constructor fields are
// fixed at creation, and runtime state (status, outcomes, event queue,
// completion future) is allocated lazily-but-safely behind a mutex instead
// of the source's "do not touch the event loop in __init__" workaround,
// which Go has no equivalent need for.
type Base struct {
	name        string
	description string
	selectable  bool
	severity    types.ActionSeverity
	ancestors   map[string]types.Dependency

	runnable Runnable
	logger   *log.Logger

	mu      sync.Mutex
	status  types.ActionStatus
	enabled bool
	outcome types.OutcomeMap
	runErr  error

	doneCh     chan struct{}
	doneClosed bool
	onTerminal func()

	eventsMu     sync.Mutex
	eventsCond   *sync.Cond
	eventsBuf    []types.EventItem
	eventsClosed bool
	eventsOut    chan types.EventItem
	eventsPumped bool

	startOnce sync.Once
}

// NewBase constructs a Base. runnable supplies the action body; it may be
// nil for kinds with no runtime behavior, which is never legal in
// practice but kept possible for test fixtures.
func NewBase(
	name string,
	ancestors map[string]types.Dependency,
	description string,
	selectable bool,
	severity types.ActionSeverity,
	runnable Runnable,
) *Base {
	if ancestors == nil {
		ancestors = map[string]types.Dependency{}
	}
	b := &Base{
		name:        name,
		description: description,
		selectable:  selectable,
		severity:    severity,
		ancestors:   ancestors,
		runnable:    runnable,
		status:      types.StatusPending,
		enabled:     true,
		outcome:     types.OutcomeMap{},
		doneCh:      make(chan struct{}),
	}
	b.eventsCond = sync.NewCond(&b.eventsMu)
	return b
}

// SetLogger attaches a logger scoped to this action. Optional.
func (b *Base) SetLogger(l *log.Logger) {
	if l != nil {
		b.logger = l.WithAction(b.name)
	}
}

func (b *Base) Name() string                           { return b.name }
func (b *Base) Description() string                    { return b.description }
func (b *Base) Selectable() bool                        { return b.selectable }
func (b *Base) Severity() types.ActionSeverity          { return b.severity }
func (b *Base) Ancestors() map[string]types.Dependency  { return b.ancestors }

func (b *Base) Status() types.ActionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Base) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Base) Disable() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != types.StatusPending {
		return &ErrActionNotPending{Action: b.name, Status: string(b.status)}
	}
	b.enabled = false
	return nil
}

func (b *Base) GetOutcomes() types.OutcomeMap {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(types.OutcomeMap, len(b.outcome))
	for k, v := range b.outcome {
		out[k] = v
	}
	return out
}

// YieldOutcome records an outcome key/value pair. Legal while PENDING or
// RUNNING; called from within the action body.
func (b *Base) YieldOutcome(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcome[key] = value
	if b.logger != nil {
		b.logger.Sugar().Debugf("yielded a key: %q", key)
	}
}

func (b *Base) Done() bool {
	select {
	case <-b.doneCh:
		return true
	default:
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status == types.StatusSkipped || b.status == types.StatusOmitted
}

func (b *Base) Completion() <-chan struct{} { return b.doneCh }

func (b *Base) AwaitCompletion(ctx context.Context) error {
	select {
	case <-b.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == types.StatusFailure {
		return b.runErr
	}
	return nil
}

// LastError returns the stored run error regardless of terminal status,
// so a caller can report a WARNING action's underlying message (which
// AwaitCompletion, by contract, swallows).
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runErr
}

func (b *Base) finish(status types.ActionStatus, err error) {
	b.mu.Lock()
	alreadyDone := b.doneClosed
	if !alreadyDone {
		b.status = status
		b.runErr = err
		b.doneClosed = true
	}
	b.mu.Unlock()
	if !alreadyDone {
		b.runOnTerminal()
		close(b.doneCh)
		b.closeEvents()
	}
}

// OnTerminal registers fn to run synchronously, exactly once, the moment
// this action first reaches a terminal status — strictly before its
// completion signal becomes observable to any Completion()/
// AwaitCompletion waiter (including a strategy's any-of wait). The
// orchestrator uses this to snapshot an action's outcomes into its
// outcome map before any descendant's render can possibly run, giving
// the outcome-visibility guarantee (spec §5) a concrete happens-before
// edge instead of relying on goroutine wakeup order off a shared close.
func (b *Base) OnTerminal(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTerminal = fn
}

func (b *Base) runOnTerminal() {
	b.mu.Lock()
	fn := b.onTerminal
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Skip transitions the action to SKIPPED and unwinds the running body via
// panic(skipSignal{}), recovered by Start's runner loop. Skip always
// panics after the transition, so outside a running body nothing recovers
// it; ForceSkip performs the same transition without the panic.
func (b *Base) Skip() {
	b.internalSkip()
	panic(skipSignal{})
}

func (b *Base) internalSkip() {
	b.mu.Lock()
	if b.doneClosed {
		b.mu.Unlock()
		return
	}
	b.status = types.StatusSkipped
	b.doneClosed = true
	b.mu.Unlock()
	b.runOnTerminal()
	close(b.doneCh)
	b.closeEvents()
	if b.logger != nil {
		b.logger.Sugar().Infof("action %q skipped", b.name)
	}
}

// ForceSkip transitions a not-yet-started action straight to SKIPPED,
// from outside the action's own body. Used by strategies to implement
// skip_action: strict-dependency propagation (loose/strict) and
// strict-sequential's post-failure drain both skip actions that never
// ran at all, so the panic-based unwind Skip uses for a running body
// does not apply here. Idempotent: a no-op once the action is already
// done.
func (b *Base) ForceSkip() {
	b.internalSkip()
}

// Omit transitions the action to OMITTED: used by the orchestrator for
// actions disabled before the strategy emits them.
func (b *Base) Omit() {
	b.mu.Lock()
	if b.doneClosed {
		b.mu.Unlock()
		return
	}
	b.status = types.StatusOmitted
	b.doneClosed = true
	b.mu.Unlock()
	b.runOnTerminal()
	close(b.doneCh)
	b.closeEvents()
	if b.logger != nil {
		b.logger.Sugar().Infof("action %q omitted", b.name)
	}
}

// Fail records a typed run error and unwinds the body via panic, exactly
// like Skip.
func (b *Base) Fail(message string) {
	err := &RunError{Action: b.name, Message: message}
	b.internalFail(err)
	panic(err)
}

func (b *Base) internalFail(err error) {
	b.mu.Lock()
	if b.doneClosed {
		b.mu.Unlock()
		return
	}
	status := types.StatusFailure
	if b.severity == types.SeverityLow {
		status = types.StatusWarning
	}
	b.status = status
	b.runErr = err
	b.doneClosed = true
	b.mu.Unlock()
	b.runOnTerminal()
	close(b.doneCh)
	b.closeEvents()
	if b.logger != nil {
		b.logger.Sugar().Infof("action %q failed: %v", b.name, err)
	}
}

// SetArgs is a no-op on the bare Base, which carries no typed arguments
// of its own. Concrete action kinds (Echo, Shell, ...) override it by
// embedding *Base and declaring their own SetArgs method.
func (b *Base) SetArgs(rendered map[string]interface{}) error { return nil }

// ForceFail transitions a not-yet-started action straight to its failure
// terminal (FAILURE, or WARNING for low severity), from outside the
// action's own body. Used by the orchestrator when an action's argument
// render or schema validation fails before Start is ever called.
func (b *Base) ForceFail(message string) {
	b.internalFail(&RunError{Action: b.name, Message: message})
}

// Emit queues a plain message event.
func (b *Base) Emit(message string) {
	b.pushEvent(types.EventItem{Message: types.Event(message)})
}

// EmitStderr queues a stderr-flagged event. Not scanned for service
// messages by EmissionScanner; see emission.go.
func (b *Base) EmitStderr(message string) {
	b.pushEvent(types.EventItem{Message: types.Event(message), Stderr: true})
}

func (b *Base) pushEvent(e types.EventItem) {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	if b.eventsClosed {
		return
	}
	b.eventsBuf = append(b.eventsBuf, e)
	b.eventsCond.Signal()
}

func (b *Base) closeEvents() {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	if b.eventsClosed {
		return
	}
	b.eventsClosed = true
	b.eventsCond.Broadcast()
}

// ReadEvents returns a channel delivering queued events in order, closing
// once the action is done and the buffer drained. Safe to call once; the
// underlying pump goroutine is started on first call.
func (b *Base) ReadEvents() <-chan types.EventItem {
	b.eventsMu.Lock()
	defer b.eventsMu.Unlock()
	if b.eventsOut != nil {
		return b.eventsOut
	}
	out := make(chan types.EventItem)
	b.eventsOut = out
	go b.pumpEvents(out)
	return out
}

func (b *Base) pumpEvents(out chan<- types.EventItem) {
	defer close(out)
	for {
		b.eventsMu.Lock()
		for len(b.eventsBuf) == 0 && !b.eventsClosed {
			b.eventsCond.Wait()
		}
		if len(b.eventsBuf) == 0 && b.eventsClosed {
			b.eventsMu.Unlock()
			return
		}
		next := b.eventsBuf[0]
		b.eventsBuf = b.eventsBuf[1:]
		b.eventsMu.Unlock()
		out <- next
	}
}

// Start launches the action body, if any, on its own goroutine. A no-op if
// called more than once, or if the action is not PENDING (e.g. already
// disabled/omitted by the orchestrator).
func (b *Base) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		b.mu.Lock()
		if b.status != types.StatusPending {
			b.mu.Unlock()
			return
		}
		b.status = types.StatusRunning
		b.mu.Unlock()
		if b.logger != nil {
			b.logger.Sugar().Infof("running action: %q", b.name)
		}
		go b.runBody(ctx)
	})
}

func (b *Base) runBody(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case skipSignal:
				// already transitioned by Skip()
			case *RunError:
				// already transitioned by Fail()
			case error:
				b.internalFail(v)
			default:
				b.internalFail(fmt.Errorf("%v", v))
			}
		}
	}()
	if b.runnable == nil {
		b.finish(types.StatusSuccess, nil)
		return
	}
	if err := b.runnable.Run(ctx); err != nil {
		b.internalFail(err)
		return
	}
	b.mu.Lock()
	alreadyDone := b.doneClosed
	b.mu.Unlock()
	if !alreadyDone {
		b.finish(types.StatusSuccess, nil)
	}
}
