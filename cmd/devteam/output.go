package main

import (
	"fmt"
	"io"

	"devteam-ai/internal/adapter/tui/chat"
	"devteam-ai/internal/domain"
)

// printTurns writes each reply under its role name, followed by a handoff
// line when the role named a successor.
func printTurns(w io.Writer, turns []domain.Turn) {
	for _, turn := range turns {
		fmt.Fprintf(w, "[%s]\n%s\n", turn.Agent.DisplayName(), turn.Reply)
		if turn.Handoff != nil {
			fmt.Fprintln(w, chat.HandoffLine(turn.Agent, *turn.Handoff))
		}
	}
}
