// Package strategy implements the five dependency/failure propagation
// policies an orchestrator run can be driven by: free, sequential,
// strict-sequential, loose, and strict. Each is an iterator the
// orchestrator pulls actions from; the strategy decides when an action
// may start and, for the dependency-aware variants, whether it should be
// force-skipped instead of started at all.
package strategy

import (
	"context"
	"fmt"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/workflow"
)

// Iterator yields the next action the orchestrator may start now. Next
// returns (action, true, nil) when an action is ready, (nil, false, nil)
// once the strategy has no more actions to emit, and a non-nil error only
// if ctx is done while waiting.
type Iterator interface {
	Next(ctx context.Context) (actions.Action, bool, error)
}

// Names lists the strategies selectable by name (CLI flag / config value).
const (
	Free             = "free"
	Sequential       = "sequential"
	StrictSequential = "strict-sequential"
	Loose            = "loose"
	Strict           = "strict"
)

// New builds the named strategy over graph. graph.Order() (and
// graph.Ancestors()) must already reflect the fully pruned dependency
// structure.
func New(name string, graph *workflow.Graph) (Iterator, error) {
	switch name {
	case Free:
		return newFree(graph), nil
	case Sequential:
		return newSequential(graph, false), nil
	case StrictSequential:
		return newSequential(graph, true), nil
	case Loose:
		return newLoose(graph, false), nil
	case Strict:
		return newLoose(graph, true), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
