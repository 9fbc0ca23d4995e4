package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devteam-ai/internal/adapter/tui/theme"
	"devteam-ai/internal/domain"
)

// MessageKind identifies how a transcript line is rendered.
type MessageKind string

const (
	KindUser    MessageKind = "user"
	KindAgent   MessageKind = "agent"
	KindHandoff MessageKind = "handoff"
	KindSystem  MessageKind = "system"
	KindError   MessageKind = "error"
)

// ChatMessage is one entry of the on-screen transcript.
type ChatMessage struct {
	Kind      MessageKind
	Agent     domain.AgentType // KindAgent only
	Content   string
	Rendered  string // cached glamour output
	Timestamp time.Time
}

// TranscriptModel is a scrolling view of the conversation. It follows new
// messages while the user is at the bottom and stops when they scroll up.
type TranscriptModel struct {
	Viewport viewport.Model
	Messages []ChatMessage
	limit    int
	width    int
	ready    bool
	atBottom bool
	md       *glamour.TermRenderer
}

// NewTranscript creates a transcript holding at most limit messages (0 = no cap).
func NewTranscript(limit int) TranscriptModel {
	return TranscriptModel{limit: limit, atBottom: true}
}

// SetSize sets the viewport dimensions and re-renders.
func (m *TranscriptModel) SetSize(w, h int) {
	if w != m.width {
		m.width = w
		m.md = nil
		for i := range m.Messages {
			m.Messages[i].Rendered = ""
		}
	}
	if !m.ready {
		m.Viewport = viewport.New(w, h)
		m.Viewport.MouseWheelEnabled = true
		m.ready = true
	} else {
		m.Viewport.Width = w
		m.Viewport.Height = h
	}
	m.refresh()
}

// Add appends msg, trimming the oldest entries past the cap.
func (m *TranscriptModel) Add(msg ChatMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	m.Messages = append(m.Messages, msg)
	if m.limit > 0 && len(m.Messages) > m.limit {
		m.Messages = m.Messages[len(m.Messages)-m.limit:]
	}
	m.refresh()
	if m.atBottom {
		m.Viewport.GotoBottom()
	}
}

// Clear removes every message.
func (m *TranscriptModel) Clear() {
	m.Messages = nil
	m.atBottom = true
	m.refresh()
	m.Viewport.GotoTop()
}

// Update handles scrolling.
func (m TranscriptModel) Update(msg tea.Msg) (TranscriptModel, tea.Cmd) {
	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	m.atBottom = m.Viewport.AtBottom()
	return m, cmd
}

// View renders the viewport.
func (m TranscriptModel) View() string {
	if !m.ready {
		return "  Initializing..."
	}
	return m.Viewport.View()
}

func (m *TranscriptModel) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.render())
}

func (m *TranscriptModel) render() string {
	if len(m.Messages) == 0 {
		return theme.TextMuted.Render("  Ask the team something. /help lists commands.")
	}
	width := min(max(m.width-4, 40), theme.MaxContentWidth)

	var sb strings.Builder
	for i := range m.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(&m.Messages[i], width))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *TranscriptModel) renderMessage(msg *ChatMessage, width int) string {
	switch msg.Kind {
	case KindUser:
		return theme.UserLabel.Render(theme.SymbolUser) + "  " + msg.Content
	case KindHandoff:
		return "  " + theme.HandoffLine.Render(msg.Content)
	case KindSystem:
		return theme.SystemLabel.Render("System") + "  " + msg.Content
	case KindError:
		return theme.ErrorLabel.Render(theme.SymbolError+" Error") + "  " + theme.TextError.Render(msg.Content)
	}

	if msg.Rendered == "" {
		msg.Rendered = strings.TrimSpace(m.renderMarkdown(msg.Content, width))
	}
	header := theme.AgentLabel(msg.Agent) + " " + theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	return lipgloss.JoinVertical(lipgloss.Left, header, msg.Rendered)
}

func (m *TranscriptModel) renderMarkdown(content string, width int) string {
	if m.md == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "  " + content
		}
		m.md = r
	}
	out, err := m.md.Render(content)
	if err != nil {
		return "  " + content
	}
	return out
}

// Divider renders a horizontal line at the given width.
func Divider(width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorBorder).
		Render(strings.Repeat("─", max(width, 0)))
}
