package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devteam-ai/internal/adapter/tui/theme"
)

// InputSubmitMsg is sent when the user presses Enter on non-empty input.
type InputSubmitMsg struct {
	Value string
}

// InputModel wraps a textarea with submit handling.
type InputModel struct {
	Textarea textarea.Model
	Enabled  bool
}

// NewInput creates a focused input area.
func NewInput() InputModel {
	ta := textarea.New()
	ta.Placeholder = "Describe what the team should do..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = theme.InputPrompt
	ta.FocusedStyle.Placeholder = theme.InputPlaceholder
	ta.Focus()
	return InputModel{Textarea: ta, Enabled: true}
}

// SetWidth updates the textarea width.
func (m *InputModel) SetWidth(w int) {
	m.Textarea.SetWidth(w - 2)
}

// SetEnabled enables or disables input, e.g. while the team is answering.
func (m *InputModel) SetEnabled(enabled bool) {
	m.Enabled = enabled
	if enabled {
		m.Textarea.Focus()
	} else {
		m.Textarea.Blur()
	}
}

// ParseSlashCommand splits "/cmd arg..." into the lower-cased command and
// the remaining text.
func ParseSlashCommand(input string) (cmd, rest string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	cmd, rest, _ = strings.Cut(input, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest), true
}

// Update handles key events. Enter submits; Alt+Enter inserts a newline.
func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	if !m.Enabled {
		return m, nil
	}
	if _, ok := msg.(tea.MouseMsg); ok {
		return m, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter && !key.Alt {
		value := strings.TrimSpace(m.Textarea.Value())
		if value == "" {
			return m, nil
		}
		m.Textarea.Reset()
		return m, func() tea.Msg { return InputSubmitMsg{Value: value} }
	}
	var cmd tea.Cmd
	m.Textarea, cmd = m.Textarea.Update(msg)
	return m, cmd
}

// View renders the textarea.
func (m InputModel) View() string {
	return m.Textarea.View()
}
