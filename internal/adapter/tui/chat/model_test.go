package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam-ai/internal/adapter/tui/components"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/logger"
)

type fakeTeam struct {
	current domain.AgentType
	turns   []domain.Turn
	err     error
	queries []string
	resets  int
}

func (f *fakeTeam) Ask(_ context.Context, query string) ([]domain.Turn, error) {
	f.queries = append(f.queries, query)
	return f.turns, f.err
}
func (f *fakeTeam) Current() domain.AgentType { return f.current }
func (f *fakeTeam) SetCurrent(role domain.AgentType) error {
	f.current = role
	return nil
}
func (f *fakeTeam) Reset() {
	f.resets++
	f.current = domain.ProjectOrchestrator
}
func (f *fakeTeam) SessionID() string { return "01J0000000000000000000TEST" }

func newTestModel(team *fakeTeam) Model {
	m := NewModel(Deps{Team: team, Logger: logger.Discard()})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, value string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(components.InputSubmitMsg{Value: value})
	return next.(Model), cmd
}

func lastMessage(m Model) components.ChatMessage {
	msgs := m.Messages()
	return msgs[len(msgs)-1]
}

func TestAskRendersTurnsAndHandoff(t *testing.T) {
	to := domain.FrontendDeveloper
	team := &fakeTeam{
		current: domain.ProjectOrchestrator,
		turns: []domain.Turn{
			{Agent: domain.ProjectOrchestrator, Reply: "I'll handoff to the Frontend Developer to handle this.", Handoff: &to, HandedOff: true},
			{Agent: domain.FrontendDeveloper, Reply: "Here is the page.", From: domain.ProjectOrchestrator},
		},
	}
	m := newTestModel(team)

	m, cmd := submit(t, m, "Build a login page")
	require.NotNil(t, cmd)
	assert.True(t, m.Waiting())
	assert.Equal(t, components.KindUser, lastMessage(m).Kind)

	done := cmd()
	require.IsType(t, AskDoneMsg{}, done)
	team.current = domain.FrontendDeveloper

	next, _ := m.Update(done)
	m = next.(Model)
	assert.False(t, m.Waiting())
	assert.Equal(t, []string{"Build a login page"}, team.queries)

	msgs := m.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, components.KindAgent, msgs[1].Kind)
	assert.Equal(t, domain.ProjectOrchestrator, msgs[1].Agent)
	assert.Equal(t, components.KindHandoff, msgs[2].Kind)
	assert.Equal(t, HandoffLine(domain.ProjectOrchestrator, domain.FrontendDeveloper), msgs[2].Content)
	assert.Equal(t, domain.FrontendDeveloper, msgs[3].Agent)
	assert.Equal(t, "Here is the page.", msgs[3].Content)
}

func TestHandoffLine(t *testing.T) {
	line := HandoffLine(domain.ProjectOrchestrator, domain.QATester)
	assert.True(t, strings.HasPrefix(line, "Handoff: Project Orchestrator "))
	assert.True(t, strings.HasSuffix(line, " QA Tester"))
}

func TestAskErrorShowsFriendlyMessage(t *testing.T) {
	team := &fakeTeam{current: domain.ProjectOrchestrator, err: errors.New("API response error: 500")}
	m := newTestModel(team)

	m, cmd := submit(t, m, "hello")
	next, _ := m.Update(cmd())
	m = next.(Model)

	last := lastMessage(m)
	assert.Equal(t, components.KindError, last.Kind)
	assert.Contains(t, last.Content, "Error processing your query. Please try again later.")
	assert.Contains(t, last.Content, "API response error: 500")
}

func TestCancelBlocksInputUntilRequestReturns(t *testing.T) {
	team := &fakeTeam{current: domain.ProjectOrchestrator, err: context.Canceled}
	m := newTestModel(team)

	m, cmd := submit(t, m, "hello")
	next, _ := m.Update(components.InputSubmitMsg{Value: "/cancel"})
	m = next.(Model)
	assert.True(t, m.Waiting())
	assert.Equal(t, "Request cancelled.", lastMessage(m).Content)

	m, again := submit(t, m, "second question")
	assert.Nil(t, again)
	assert.Equal(t, busyNotice, lastMessage(m).Content)

	m, _ = submit(t, m, "/reset")
	assert.Zero(t, team.resets)
	assert.Equal(t, busyNotice, lastMessage(m).Content)

	count := len(m.Messages())
	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.Waiting())
	assert.Len(t, m.Messages(), count)
	assert.Equal(t, []string{"hello"}, team.queries)

	m, _ = submit(t, m, "/reset")
	assert.Equal(t, 1, team.resets)
}

func TestSecondCtrlCQuitsWhileCancelling(t *testing.T) {
	m := newTestModel(&fakeTeam{current: domain.ProjectOrchestrator})
	m, _ = submit(t, m, "hello")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	assert.True(t, m.Waiting())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSlashAgentSwitchesRole(t *testing.T) {
	team := &fakeTeam{current: domain.ProjectOrchestrator}
	m := newTestModel(team)

	m, cmd := submit(t, m, "/agent qa tester")
	assert.Nil(t, cmd)
	assert.Equal(t, domain.QATester, team.current)
	assert.Equal(t, "Switched to QA Tester.", lastMessage(m).Content)

	m, _ = submit(t, m, "/agent janitor")
	assert.Equal(t, components.KindError, lastMessage(m).Kind)
	assert.Equal(t, domain.QATester, team.current)
}

func TestSlashReset(t *testing.T) {
	team := &fakeTeam{current: domain.BackendDeveloper}
	m := newTestModel(team)
	m, _ = submit(t, m, "/agents")

	m, _ = submit(t, m, "/reset")
	assert.Equal(t, 1, team.resets)
	require.Len(t, m.Messages(), 1)
	assert.Contains(t, lastMessage(m).Content, "Conversation reset. Talking to Project Orchestrator.")
}

func TestSlashQuitAndUnknown(t *testing.T) {
	m := newTestModel(&fakeTeam{current: domain.ProjectOrchestrator})

	m, _ = submit(t, m, "/dance")
	assert.Contains(t, lastMessage(m).Content, "Unknown command: /dance")

	_, cmd := submit(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestParseSlashCommand(t *testing.T) {
	cmd, rest, ok := components.ParseSlashCommand("  /AGENT  qa tester ")
	assert.True(t, ok)
	assert.Equal(t, "/agent", cmd)
	assert.Equal(t, "qa tester", rest)

	_, _, ok = components.ParseSlashCommand("hello")
	assert.False(t, ok)
}
