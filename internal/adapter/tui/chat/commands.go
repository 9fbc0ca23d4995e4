package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// askCmd runs one team step in the background with a cancellable context.
func askCmd(ctx context.Context, team Team, query string, gen uint64) tea.Cmd {
	return func() tea.Msg {
		turns, err := team.Ask(ctx, query)
		return AskDoneMsg{Turns: turns, Err: err, Gen: gen}
	}
}
