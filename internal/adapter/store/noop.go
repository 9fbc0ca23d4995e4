package store

import (
	"context"

	"devteam-ai/internal/domain"
)

// NoopTranscriptStore discards every entry. Used when persistence is off.
type NoopTranscriptStore struct{}

func (NoopTranscriptStore) Append(context.Context, domain.TranscriptEntry) error { return nil }

func (NoopTranscriptStore) List(context.Context, string) ([]domain.TranscriptEntry, error) {
	return nil, nil
}

func (NoopTranscriptStore) Sessions(context.Context) ([]string, error) { return nil, nil }

func (NoopTranscriptStore) Close() error { return nil }

var (
	_ domain.TranscriptStore = NoopTranscriptStore{}
	_ domain.TranscriptStore = (*SQLiteTranscriptStore)(nil)
)
