package display

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

var (
	colorGray   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	colorRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	colorYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	colorGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

// statusStyle maps an action's terminal (or in-flight) status to the
// lipgloss style the original wraps it in via Color.{gray,red,yellow,green}.
func statusStyle(s types.ActionStatus) lipgloss.Style {
	switch s {
	case types.StatusFailure:
		return colorRed
	case types.StatusWarning:
		return colorYellow
	case types.StatusSuccess:
		return colorGreen
	case types.StatusRunning:
		return lipgloss.NewStyle()
	default: // PENDING, SKIPPED, OMITTED
		return colorGray
	}
}

// prologue holds the bookkeeping shared by the prefixes and headers
// flavors: which action's output was displayed last (to decide whether a
// new prefix/header block is needed) and the longest action name (for
// column alignment).
type prologue struct {
	g                 *workflow.Graph
	maxNameLen        int
	mu                sync.Mutex
	lastDisplayedName string
	printf            func(string, ...interface{})
}

func newPrologue(g *workflow.Graph) prologue {
	maxLen := 0
	for _, name := range g.Order() {
		if len(name) > maxLen {
			maxLen = len(name)
		}
	}
	return prologue{
		g:          g,
		maxNameLen: maxLen,
		printf:     func(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) },
	}
}

// onPlanInteraction is shared by both flavors: delegate the actual
// checklist UI to runChecklist (tui.go), then apply deselections.
func (p *prologue) onPlanInteraction(g *workflow.Graph) error {
	var selectable []string
	for _, entry := range g.IterByTier() {
		if entry.Action.Selectable() {
			selectable = append(selectable, entry.Name)
		}
	}
	selected, err := runChecklist(selectable)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		keep[name] = struct{}{}
	}
	for _, name := range selectable {
		if _, ok := keep[name]; !ok {
			if err := g.Action(name).Disable(); err != nil {
				return err
			}
		}
	}
	return nil
}

func splitLines(message string) []string {
	if message == "" {
		return []string{""}
	}
	return strings.Split(message, "\n")
}
