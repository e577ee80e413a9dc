package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/grana/errs"
)

// checklistKeys mirrors cli/tui's key.Binding convention: a small fixed
// keymap instead of hardcoded rune switches.
type checklistKeys struct {
	Up, Down, Toggle, Confirm, Quit key.Binding
}

var defaultChecklistKeys = checklistKeys{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Toggle:  key.NewBinding(key.WithKeys(" ")),
	Confirm: key.NewBinding(key.WithKeys("enter")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc")),
}

var checklistTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
var checklistHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
var checklistCheckedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

// checklistModel is a Bubble Tea checklist, replacing the original's
// `inquirer.Checkbox` dialog with every selectable action pre-checked.
type checklistModel struct {
	items    []string
	checked  map[int]bool
	cursor   int
	quitting bool
	aborted  bool
}

func newChecklistModel(items []string) checklistModel {
	checked := make(map[int]bool, len(items))
	for i := range items {
		checked[i] = true
	}
	return checklistModel{items: items, checked: checked}
}

func (m checklistModel) Init() tea.Cmd { return nil }

func (m checklistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, defaultChecklistKeys.Quit):
		m.quitting, m.aborted = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, defaultChecklistKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.cursor = len(m.items) - 1
		}
	case key.Matches(keyMsg, defaultChecklistKeys.Down):
		m.cursor = (m.cursor + 1) % len(m.items)
	case key.Matches(keyMsg, defaultChecklistKeys.Toggle):
		m.checked[m.cursor] = !m.checked[m.cursor]
	case key.Matches(keyMsg, defaultChecklistKeys.Confirm):
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m checklistModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(checklistTitleStyle.Render("Select actions (SPACE to check, RETURN to proceed)") + "\n\n")
	for i, name := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		box := "[ ]"
		if m.checked[i] {
			box = checklistCheckedStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, box, name))
	}
	b.WriteString("\n" + checklistHelpStyle.Render("up/down move, space toggle, enter confirm, esc cancel") + "\n")
	return b.String()
}

// runChecklist runs the interactive selection dialog over items (actions
// with Selectable()==true, in tier order), returning the subset the user
// left checked. Requires a TTY, matching the original's sys.stdin.isatty
// guard.
func runChecklist(items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, errs.New(errs.KindInteraction, "no selectable actions")
	}
	if !isTerminal(os.Stdin) {
		return nil, errs.New(errs.KindInteraction, "interactive mode requires a tty")
	}
	m := newChecklistModel(items)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return nil, errs.Wrap(errs.KindInteraction, "checklist failed", err)
	}
	result := final.(checklistModel)
	if result.aborted {
		return nil, errs.New(errs.KindInteraction, "selection cancelled")
	}
	var selected []string
	for i, name := range result.items {
		if result.checked[i] {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
