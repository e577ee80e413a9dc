// Package workflow builds the dependency graph over a loaded action set:
// pruning dangling external dependencies, computing entrypoints, assigning
// BFS tiers, and rejecting integrity violations (missing ancestors, no
// entrypoints, unreachable actions) before any action is allowed to run.
package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/errs"
	"github.com/pithecene-io/grana/types"
)

// TierEntry is one (tier, action) pair as yielded by Graph.IterByTier.
type TierEntry struct {
	Tier   int
	Name   string
	Action actions.Action
}

// Graph is the pruned, tiered dependency graph over one workflow's
// action set. It is built once, before any action starts, and never
// mutated afterward.
type Graph struct {
	order       []string
	acts        map[string]actions.Action
	ancestors   map[string]map[string]types.Dependency
	descendants map[string][]string
	entrypoints []string
	tierOf      map[string]int
	tiers       [][]string
}

// NewGraph builds and validates the graph. order is the action map's
// original insertion order; acts must contain an entry for every name in
// order.
func NewGraph(order []string, acts map[string]actions.Action) (*Graph, error) {
	g := &Graph{
		order:       order,
		acts:        acts,
		ancestors:   make(map[string]map[string]types.Dependency, len(order)),
		descendants: make(map[string][]string, len(order)),
		tierOf:      make(map[string]int, len(order)),
	}
	for _, name := range order {
		g.descendants[name] = nil
	}

	var missing []string
	for _, name := range order {
		a := acts[name]
		pruned := make(map[string]types.Dependency)
		for anc, dep := range a.Ancestors() {
			if _, ok := acts[anc]; !ok {
				if dep.External {
					continue
				}
				missing = append(missing, fmt.Sprintf("%s -> %s", name, anc))
				continue
			}
			pruned[anc] = dep
			g.descendants[anc] = append(g.descendants[anc], name)
		}
		g.ancestors[name] = pruned
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errs.New(errs.KindIntegrity, "missing ancestor: "+strings.Join(missing, ", "))
	}

	for _, name := range order {
		if len(g.ancestors[name]) == 0 {
			g.entrypoints = append(g.entrypoints, name)
		}
	}
	if len(g.entrypoints) == 0 {
		return nil, errs.New(errs.KindIntegrity, "no entrypoints")
	}

	if err := g.assignTiers(); err != nil {
		return nil, err
	}
	return g, nil
}

// assignTiers runs a BFS from the entrypoints over the descendant edges;
// an action's tier is the depth at which it is first visited.
func (g *Graph) assignTiers() error {
	visited := make(map[string]int, len(g.order))
	queue := make([]string, 0, len(g.order))
	for _, name := range g.entrypoints {
		visited[name] = 0
		queue = append(queue, name)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		tier := visited[name]
		for _, child := range g.descendants[name] {
			if _, ok := visited[child]; ok {
				continue
			}
			visited[child] = tier + 1
			queue = append(queue, child)
		}
	}

	var unreachable []string
	maxTier := 0
	for _, name := range g.order {
		t, ok := visited[name]
		if !ok {
			unreachable = append(unreachable, name)
			continue
		}
		if t > maxTier {
			maxTier = t
		}
	}
	if len(unreachable) > 0 {
		sort.Strings(unreachable)
		return errs.New(errs.KindIntegrity, "unreachable actions: "+strings.Join(unreachable, ", "))
	}

	g.tierOf = visited
	g.tiers = make([][]string, maxTier+1)
	for _, name := range g.order {
		t := visited[name]
		g.tiers[t] = append(g.tiers[t], name)
	}
	return nil
}

// Ancestors returns the pruned (external-missing-removed) dependency map
// for name, the one the orchestrator and strategies should read instead
// of the action's own Ancestors().
func (g *Graph) Ancestors(name string) map[string]types.Dependency { return g.ancestors[name] }

// Descendants returns the names of actions that directly depend on name.
func (g *Graph) Descendants(name string) []string { return g.descendants[name] }

// Entrypoints returns the actions with no (post-pruning) ancestors, in
// insertion order.
func (g *Graph) Entrypoints() []string { return g.entrypoints }

// Tier returns the BFS tier of name.
func (g *Graph) Tier(name string) int { return g.tierOf[name] }

// TierCount returns the number of tiers in the graph.
func (g *Graph) TierCount() int { return len(g.tiers) }

// Order returns the workflow's original action insertion order.
func (g *Graph) Order() []string { return g.order }

// Action returns the action registered under name.
func (g *Graph) Action(name string) actions.Action { return g.acts[name] }

// IterByTier yields (tier, action) pairs in (tier, insertion-order) order.
func (g *Graph) IterByTier() []TierEntry {
	entries := make([]TierEntry, 0, len(g.order))
	for tier, names := range g.tiers {
		for _, name := range names {
			entries = append(entries, TierEntry{Tier: tier, Name: name, Action: g.acts[name]})
		}
	}
	return entries
}
