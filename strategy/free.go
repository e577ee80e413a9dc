package strategy

import (
	"context"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/workflow"
)

// free emits every action immediately, in insertion order, with no
// dependency or completion ordering: unbounded parallelism.
type free struct {
	graph *workflow.Graph
	next  int
}

func newFree(graph *workflow.Graph) *free {
	return &free{graph: graph}
}

func (s *free) Next(ctx context.Context) (actions.Action, bool, error) {
	order := s.graph.Order()
	if s.next >= len(order) {
		return nil, false, nil
	}
	name := order[s.next]
	s.next++
	return s.graph.Action(name), true, nil
}
