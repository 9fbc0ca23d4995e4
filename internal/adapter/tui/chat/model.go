package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"devteam-ai/internal/adapter/tui/components"
	"devteam-ai/internal/adapter/tui/theme"
	"devteam-ai/internal/domain"
)

// Team is the conversation the model drives. *multiagent.Team satisfies it.
type Team interface {
	Ask(ctx context.Context, query string) ([]domain.Turn, error)
	Current() domain.AgentType
	SetCurrent(role domain.AgentType) error
	Reset()
	SessionID() string
}

// Deps are dependencies injected into the chat model.
type Deps struct {
	Team      Team
	Roles     []domain.AgentType
	ModelName string
	Logger    *slog.Logger
}

// Model is the root Bubble Tea model of the chat TUI.
type Model struct {
	deps Deps

	transcript components.TranscriptModel
	input      components.InputModel
	statusBar  components.StatusBarModel
	spinner    spinner.Model

	waiting    bool
	cancelling bool // from a cancel until the cancelled AskDoneMsg arrives
	width      int
	height     int
	quitting   bool

	// gen is bumped on every request; stale AskDoneMsg are dropped.
	gen      uint64
	cancelFn context.CancelFunc
}

// NewModel creates the chat model.
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if len(deps.Roles) == 0 {
		deps.Roles = domain.AgentTypes()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorInfo)

	m := Model{
		deps:       deps,
		transcript: components.NewTranscript(1000),
		input:      components.NewInput(),
		spinner:    s,
	}
	m.statusBar.Hints = defaultHints()
	m.statusBar.Model = deps.ModelName
	m.statusBar.Session = shortID(deps.Team.SessionID())
	m.refreshAgent()
	return m
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Messages returns the transcript entries shown so far.
func (m Model) Messages() []components.ChatMessage {
	return m.transcript.Messages
}

// Waiting reports whether a request is in flight.
func (m Model) Waiting() bool { return m.waiting }

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.waiting && !m.cancelling {
				m.cancelRequest()
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}

	case components.InputSubmitMsg:
		return m.handleSubmit(msg.Value)

	case AskDoneMsg:
		if msg.Gen != m.gen {
			return m, nil
		}
		return m.handleAskDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the chat UI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 {
		return "  Initializing..."
	}

	inputView := m.input.View()
	if m.waiting {
		inputView = theme.Dim.Render("> waiting for "+m.deps.Team.Current().DisplayName()+"...") +
			"\n" + m.spinner.View() + " " + m.statusBar.Extra
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.transcript.View(),
		components.Divider(m.width),
		inputView,
		m.statusBar.View(),
	)
}

func (m *Model) layout() {
	const inputH, statusH, dividerH = 3, 1, 1
	contentH := max(m.height-inputH-statusH-dividerH, 5)
	m.transcript.SetSize(m.width, contentH)
	m.input.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
}

func (m Model) handleSubmit(value string) (tea.Model, tea.Cmd) {
	if cmd, rest, ok := components.ParseSlashCommand(value); ok {
		return m.handleSlashCommand(cmd, rest)
	}
	if m.waiting {
		m.system(busyNotice)
		return m, nil
	}

	m.transcript.Add(components.ChatMessage{Kind: components.KindUser, Content: value})

	m.gen++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel
	m.waiting = true
	m.input.SetEnabled(false)
	m.statusBar.Extra = theme.SymbolSpinner + " Thinking..."

	return m, askCmd(ctx, m.deps.Team, value, m.gen)
}

func (m Model) handleAskDone(msg AskDoneMsg) (tea.Model, tea.Cmd) {
	// Turns returned with a cancellation were committed before it and
	// are still shown.
	for _, turn := range msg.Turns {
		m.transcript.Add(components.ChatMessage{
			Kind:    components.KindAgent,
			Agent:   turn.Agent,
			Content: turn.Reply,
		})
		if turn.Handoff != nil {
			m.transcript.Add(components.ChatMessage{
				Kind:    components.KindHandoff,
				Content: HandoffLine(turn.Agent, *turn.Handoff),
			})
		}
	}
	if msg.Err != nil && !m.cancelling && !errors.Is(msg.Err, context.Canceled) {
		m.deps.Logger.Warn("team ask failed", "error", msg.Err)
		m.transcript.Add(components.ChatMessage{
			Kind:    components.KindError,
			Content: domain.FriendlyError(msg.Err),
		})
	}
	m.finishRequest()
	return m, nil
}

func (m Model) handleSlashCommand(cmd, rest string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "/help":
		m.system(`Commands:
  /agent <ROLE>  switch to a role, e.g. /agent qa tester
  /agents        list roles
  /reset         clear every history and return to the start role
  /cancel        cancel the active request
  /quit          exit`)

	case "/quit", "/exit":
		if m.cancelFn != nil {
			m.cancelFn()
		}
		m.quitting = true
		return m, tea.Quit

	case "/reset":
		if m.waiting {
			m.system(busyNotice)
			break
		}
		m.deps.Team.Reset()
		m.transcript.Clear()
		m.refreshAgent()
		m.system(theme.SymbolSuccess + " Conversation reset. Talking to " + m.deps.Team.Current().DisplayName() + ".")

	case "/agent":
		if rest == "" {
			m.system("Current agent: " + m.deps.Team.Current().DisplayName() + ". Usage: /agent <ROLE>")
			break
		}
		if m.waiting {
			m.system(busyNotice)
			break
		}
		role, err := domain.ParseAgentType(rest)
		if err == nil {
			err = m.deps.Team.SetCurrent(role)
		}
		if err != nil {
			m.transcript.Add(components.ChatMessage{Kind: components.KindError, Content: fmt.Sprintf("Unknown agent %q. Try /agents.", rest)})
			break
		}
		m.refreshAgent()
		m.system("Switched to " + role.DisplayName() + ".")

	case "/agents":
		var sb strings.Builder
		sb.WriteString("Roles:")
		for _, r := range m.deps.Roles {
			fmt.Fprintf(&sb, "\n  %s %s (%s)", theme.SymbolBullet, r.DisplayName(), r)
		}
		m.system(sb.String())

	case "/cancel":
		if m.waiting && !m.cancelling {
			m.cancelRequest()
		} else {
			m.system("No active request to cancel.")
		}

	default:
		m.system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return m, nil
}

const busyNotice = "A request is still running. Press Ctrl+C to cancel it."

// HandoffLine renders the notice shown when control moves between roles.
func HandoffLine(from, to domain.AgentType) string {
	return fmt.Sprintf("Handoff: %s %s %s", from.DisplayName(), theme.SymbolArrowR, to.DisplayName())
}

func (m *Model) system(text string) {
	m.transcript.Add(components.ChatMessage{Kind: components.KindSystem, Content: text})
}

// cancelRequest cancels the active request. Input stays blocked until its
// AskDoneMsg arrives so two Asks never run on the team at once.
func (m *Model) cancelRequest() {
	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.cancelling = true
	m.statusBar.Extra = theme.SymbolSpinner + " Cancelling..."
	m.system("Request cancelled.")
}

func (m *Model) finishRequest() {
	if m.cancelFn != nil {
		m.cancelFn()
	}
	m.cancelFn = nil
	m.waiting = false
	m.cancelling = false
	m.input.SetEnabled(true)
	m.statusBar.Extra = ""
	m.refreshAgent()
}

func (m *Model) refreshAgent() {
	m.statusBar.Agent = theme.AgentLabel(m.deps.Team.Current())
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[len(id)-10:]
	}
	return id
}

func defaultHints() []components.KeyHint {
	return []components.KeyHint{
		{Key: "Enter", Desc: "Send"},
		{Key: "Alt+Enter", Desc: "Newline"},
		{Key: "/help", Desc: "Commands"},
		{Key: "Ctrl+C", Desc: "Cancel/Quit"},
	}
}
