package display

import (
	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// statusMark maps a status to the glyph the original's HeaderDisplay
// prints in its per-action status banner.
func statusMark(s types.ActionStatus) string {
	switch s {
	case types.StatusFailure:
		return "✗"
	case types.StatusSuccess, types.StatusWarning:
		return "✓"
	default:
		return "◯"
	}
}

// headerDisplay opens a new "┌─[name]" block whenever the emitting action
// changes, closing the previous one with "╵", ported from the original's
// HeaderDisplay.
type headerDisplay struct {
	prologue
}

func newHeaderDisplay(g *workflow.Graph) *headerDisplay {
	return &headerDisplay{prologue: newPrologue(g)}
}

func (d *headerDisplay) OnRunnerStart() error { return nil }

func (d *headerDisplay) OnRunnerFinish() error {
	d.mu.Lock()
	if d.lastDisplayedName != "" {
		d.printf("%s", colorGray.Render(" ╵"))
	}
	d.mu.Unlock()
	for _, entry := range d.g.IterByTier() {
		st := entry.Action.Status()
		d.printf("%s %s", colorGray.Render(statusMark(st)), entry.Name)
	}
	return nil
}

func (d *headerDisplay) OnPlanInteraction(g *workflow.Graph) error { return d.onPlanInteraction(g) }

func (d *headerDisplay) OnActionStart(a actions.Action)  {}
func (d *headerDisplay) OnActionFinish(a actions.Action) {}

func (d *headerDisplay) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {
	mark := d.prologueFor(a.Name())
	for _, line := range splitLines(string(msg)) {
		if stderr {
			line = colorYellow.Render(line)
		}
		d.printf("%s%s", mark, line)
	}
}

func (d *headerDisplay) EmitActionError(a actions.Action, msg string) {
	mark := d.prologueFor(a.Name())
	for _, line := range splitLines(msg) {
		d.printf("%s%s", mark, colorRed.Render(line))
	}
}

// prologueFor opens a new header block if the emitter changed since the
// last call, then returns the "│ " marker prefixing this line.
func (d *headerDisplay) prologueFor(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastDisplayedName != name {
		if d.lastDisplayedName != "" {
			d.printf("%s", colorGray.Render(" ╵"))
		}
		d.printf("%s", colorGray.Render(" ┌─["+name+"]"))
		d.lastDisplayedName = name
	}
	return colorGray.Render("│ ")
}
