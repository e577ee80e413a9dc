package orchestrator

import (
	"sync"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
)

// runState is the orchestrator's outcome map (spec §5): written only by
// the orchestrator after an action terminates, read only by the
// renderer at a later action's emission. Pre-populated with an empty
// bucket per action before the strategy starts, so cancellation can
// never leave a hole a renderer would trip over.
type runState struct {
	mu       sync.Mutex
	outcomes map[string]types.OutcomeMap
	statuses map[string]types.ActionStatus
	failed   bool
}

func newRunState(order []string) *runState {
	s := &runState{
		outcomes: make(map[string]types.OutcomeMap, len(order)),
		statuses: make(map[string]types.ActionStatus, len(order)),
	}
	for _, name := range order {
		s.outcomes[name] = types.OutcomeMap{}
		s.statuses[name] = types.StatusPending
	}
	return s
}

// snapshot returns an independent copy of the current outcome/status
// maps, safe for a Templar to hold onto for the duration of one render
// while other actions keep terminating concurrently.
func (s *runState) snapshot() (map[string]types.OutcomeMap, map[string]types.ActionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcomes := make(map[string]types.OutcomeMap, len(s.outcomes))
	for name, om := range s.outcomes {
		cp := make(types.OutcomeMap, len(om))
		for k, v := range om {
			cp[k] = v
		}
		outcomes[name] = cp
	}
	statuses := make(map[string]types.ActionStatus, len(s.statuses))
	for name, st := range s.statuses {
		statuses[name] = st
	}
	return outcomes, statuses
}

// record snapshots a just-terminated action's outcomes and status. It
// is called from the action's OnTerminal hook, which fires before its
// completion signal is observable, giving the outcome-visibility
// guarantee a descendant's render depends on.
func (s *runState) record(name string, a actions.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[name] = a.GetOutcomes()
	s.statuses[name] = a.Status()
}

func (s *runState) flagFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = true
}

func (s *runState) isFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}
