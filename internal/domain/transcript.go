package domain

import (
	"context"
	"time"
)

// TranscriptEntry is one persisted message of a team session.
type TranscriptEntry struct {
	SessionID string    `json:"session_id"`
	Seq       int64     `json:"seq"`
	Agent     AgentType `json:"agent"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	HandoffTo AgentType `json:"handoff_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptStore records team conversations for later inspection.
type TranscriptStore interface {
	Append(ctx context.Context, entry TranscriptEntry) error
	List(ctx context.Context, sessionID string) ([]TranscriptEntry, error)
	Sessions(ctx context.Context) ([]string, error)
	Close() error
}
