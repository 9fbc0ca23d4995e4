// Package chat implements the Bubble Tea chat front end for a team session.
package chat

import "devteam-ai/internal/domain"

// AskDoneMsg carries the outcome of one team step. Gen identifies the
// request so results of cancelled requests can be discarded.
type AskDoneMsg struct {
	Turns []domain.Turn
	Err   error
	Gen   uint64
}
