package strategy

import (
	"context"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/workflow"
)

// loose emits an action once every one of its ancestors is done, with
// unbounded parallelism across ready actions. strict treats every
// dependency as if its Dependency.Strict bit were set, matching the
// "strict" strategy, which is otherwise identical.
type loose struct {
	graph  *workflow.Graph
	strict bool

	pending  []string
	blockers map[string]map[string]struct{}
	active   map[string]struct{}
	watched  map[string]struct{}
	doneCh   chan string
}

func newLoose(graph *workflow.Graph, strict bool) *loose {
	order := graph.Order()
	s := &loose{
		graph:    graph,
		strict:   strict,
		pending:  append([]string(nil), order...),
		blockers: make(map[string]map[string]struct{}, len(order)),
		active:   make(map[string]struct{}),
		watched:  make(map[string]struct{}, len(order)),
		doneCh:   make(chan string, len(order)),
	}
	for _, name := range order {
		anc := graph.Ancestors(name)
		b := make(map[string]struct{}, len(anc))
		for a := range anc {
			b[a] = struct{}{}
		}
		s.blockers[name] = b
	}
	return s
}

func (s *loose) Next(ctx context.Context) (actions.Action, bool, error) {
	for {
		doneNames := s.computeDoneNames()

		readyIdx := -1
		for i, name := range s.pending {
			if subsetOf(s.blockers[name], doneNames) {
				readyIdx = i
				break
			}
		}

		if readyIdx >= 0 {
			name := s.pending[readyIdx]
			s.pending = append(s.pending[:readyIdx:readyIdx], s.pending[readyIdx+1:]...)
			delete(s.blockers, name)
			a := s.graph.Action(name)

			if s.shouldSkip(name) {
				a.ForceSkip()
				continue
			}
			s.active[name] = struct{}{}
			s.watchCompletion(name, a)
			return a, true, nil
		}

		if len(s.active) == 0 {
			return nil, false, nil
		}

		select {
		case name := <-s.doneCh:
			delete(s.active, name)
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

func (s *loose) computeDoneNames() map[string]struct{} {
	done := make(map[string]struct{}, len(s.graph.Order()))
	for _, name := range s.graph.Order() {
		if s.graph.Action(name).Done() {
			done[name] = struct{}{}
		}
	}
	return done
}

// shouldSkip reports whether name should be force-skipped instead of
// started: at least one ancestor's terminal status is FAILURE, WARNING,
// or SKIPPED, and either the dependency itself is strict or the whole
// strategy is.
func (s *loose) shouldSkip(name string) bool {
	for anc, dep := range s.graph.Ancestors(name) {
		a := s.graph.Action(anc)
		if a == nil {
			continue
		}
		if a.Status().Unsuccessful() && (dep.Strict || s.strict) {
			return true
		}
	}
	return false
}

// watchCompletion spawns (at most once per name) a goroutine that
// forwards a's completion as a name onto doneCh, letting Next block on
// an any-of wait without polling.
func (s *loose) watchCompletion(name string, a actions.Action) {
	if _, ok := s.watched[name]; ok {
		return
	}
	s.watched[name] = struct{}{}
	go func() {
		<-a.Completion()
		s.doneCh <- name
	}()
}

func subsetOf(blockers, done map[string]struct{}) bool {
	for b := range blockers {
		if _, ok := done[b]; !ok {
			return false
		}
	}
	return true
}
