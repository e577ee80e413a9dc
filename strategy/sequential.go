package strategy

import (
	"context"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/workflow"
)

// sequential runs one action at a time, in insertion order, awaiting each
// one's completion before emitting the next. The strict variant drains
// the remaining queue with a forced skip the moment an emitted action
// fails.
type sequential struct {
	graph  *workflow.Graph
	strict bool

	next    int
	current actions.Action
	drained bool
}

func newSequential(graph *workflow.Graph, strict bool) *sequential {
	return &sequential{graph: graph, strict: strict}
}

func (s *sequential) Next(ctx context.Context) (actions.Action, bool, error) {
	if s.drained {
		return nil, false, nil
	}
	if s.current != nil {
		err := s.current.AwaitCompletion(ctx)
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if s.strict && err != nil {
			s.drainRemaining()
			return nil, false, nil
		}
	}

	order := s.graph.Order()
	if s.next >= len(order) {
		s.drained = true
		return nil, false, nil
	}
	name := order[s.next]
	s.next++
	s.current = s.graph.Action(name)
	return s.current, true, nil
}

// drainRemaining force-skips every action not yet emitted, then marks the
// strategy done.
func (s *sequential) drainRemaining() {
	order := s.graph.Order()
	for ; s.next < len(order); s.next++ {
		s.graph.Action(order[s.next]).ForceSkip()
	}
	s.drained = true
}
