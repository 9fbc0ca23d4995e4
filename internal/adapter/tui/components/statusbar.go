package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"devteam-ai/internal/adapter/tui/theme"
)

// KeyHint is a single keybinding hint shown in the status bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBarModel renders key hints on the left and session state on the right.
type StatusBarModel struct {
	Hints   []KeyHint
	Agent   string
	Session string
	Model   string
	Extra   string
	width   int
}

// SetWidth updates the available width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// View renders the status bar as a single line.
func (m StatusBarModel) View() string {
	hints := make([]string, 0, len(m.Hints))
	for _, h := range m.Hints {
		hints = append(hints, theme.StatusKey.Render(h.Key)+": "+h.Desc)
	}
	left := strings.Join(hints, "  "+theme.Dim.Render("|")+"  ")

	var parts []string
	for _, p := range []string{m.Agent, m.Model, m.Session} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	right := theme.TextMuted.Render(strings.Join(parts, " "+theme.SymbolBullet+" "))
	if m.Extra != "" {
		right += "  " + theme.TextInfo.Render(m.Extra)
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
