package display

import (
	"fmt"

	"github.com/pithecene-io/grana/actions"
	"github.com/pithecene-io/grana/types"
	"github.com/pithecene-io/grana/workflow"
)

// prefixDisplay prepends each line of output with the emitting action's
// name, repeating the prefix only when the emitter changes from the
// previous line, ported from the original's PrefixDisplay.
type prefixDisplay struct {
	prologue
}

func newPrefixDisplay(g *workflow.Graph) *prefixDisplay {
	return &prefixDisplay{prologue: newPrologue(g)}
}

func (d *prefixDisplay) OnRunnerStart() error { return nil }

func (d *prefixDisplay) OnRunnerFinish() error {
	width := d.maxNameLen + 9 // len("SUCCESS: ")
	d.printf("%s", colorGray.Render(repeat("=", width)))
	for _, entry := range d.g.IterByTier() {
		st := entry.Action.Status()
		d.printf("%s: %s", statusStyle(st).Render(string(st)), entry.Name)
	}
	return nil
}

func (d *prefixDisplay) OnPlanInteraction(g *workflow.Graph) error { return d.onPlanInteraction(g) }

func (d *prefixDisplay) OnActionStart(a actions.Action)  {}
func (d *prefixDisplay) OnActionFinish(a actions.Action) {}

func (d *prefixDisplay) EmitActionMessage(a actions.Action, msg types.Event, stderr bool) {
	mark := " "
	if stderr {
		mark = "*"
	}
	for _, line := range splitLines(string(msg)) {
		prefix := d.prologueFor(a.Name(), mark)
		if stderr {
			line = colorYellow.Render(line)
		}
		d.printf("%s%s", prefix, line)
	}
}

func (d *prefixDisplay) EmitActionError(a actions.Action, msg string) {
	prefix := d.prologueFor(a.Name(), "!")
	for _, line := range splitLines(msg) {
		d.printf("%s%s", prefix, colorRed.Render(line))
	}
}

// prologueFor builds the "[name]  *| " style prefix, blanking the name
// column on repeated lines from the same emitter.
func (d *prefixDisplay) prologueFor(name, mark string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	width := d.maxNameLen + 2
	var col string
	if d.lastDisplayedName != name {
		col = padRight(fmt.Sprintf("[%s]", name), width)
	} else {
		col = repeat(" ", width)
	}
	d.lastDisplayedName = name
	return colorGray.Render(fmt.Sprintf("%s %s| ", col, mark))
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
