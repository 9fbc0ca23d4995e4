package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"devteam-ai/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteTranscriptStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "transcripts.db")
	store, err := NewSQLiteTranscriptStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteTranscriptStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteTranscriptStore_AppendList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []domain.TranscriptEntry{
		{SessionID: "s1", Seq: 1, Agent: domain.ProjectOrchestrator, Role: domain.RoleUser, Content: "Build a login page", CreatedAt: now},
		{SessionID: "s1", Seq: 2, Agent: domain.ProjectOrchestrator, Role: domain.RoleAssistant, Content: "handing off", HandoffTo: domain.FrontendDeveloper, CreatedAt: now.Add(time.Second)},
		{SessionID: "s1", Seq: 3, Agent: domain.FrontendDeveloper, Role: domain.RoleAssistant, Content: "done", CreatedAt: now.Add(2 * time.Second)},
	}
	// Insert out of order; List sorts by seq.
	for _, i := range []int{2, 0, 1} {
		if err := store.Append(ctx, entries[i]); err != nil {
			t.Fatalf("Append(%d): %v", entries[i].Seq, err)
		}
	}

	got, err := store.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("len = %d, want %d", len(got), len(entries))
	}
	for i := range entries {
		want := entries[i]
		if got[i].Seq != want.Seq || got[i].Agent != want.Agent || got[i].Role != want.Role ||
			got[i].Content != want.Content || got[i].HandoffTo != want.HandoffTo {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want)
		}
		if !got[i].CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("entry %d CreatedAt = %v, want %v", i, got[i].CreatedAt, want.CreatedAt)
		}
	}
}

func TestSQLiteTranscriptStore_ListUnknownSession(t *testing.T) {
	store := newTestStore(t)
	got, err := store.List(context.Background(), "missing")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestSQLiteTranscriptStore_DuplicateSeq(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	e := domain.TranscriptEntry{SessionID: "s1", Seq: 1, Agent: domain.QATester, Role: domain.RoleUser, Content: "x"}

	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := store.Append(ctx, e)
	if !errors.Is(err, domain.ErrTranscriptWrite) {
		t.Errorf("duplicate Append error = %v, want ErrTranscriptWrite", err)
	}
}

func TestSQLiteTranscriptStore_EmptySession(t *testing.T) {
	store := newTestStore(t)
	err := store.Append(context.Background(), domain.TranscriptEntry{Seq: 1})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestSQLiteTranscriptStore_Sessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"b", "a", "b"} {
		e := domain.TranscriptEntry{
			SessionID: id,
			Seq:       int64(i + 1),
			Agent:     domain.QATester,
			Role:      domain.RoleUser,
			Content:   "q",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ids, err := store.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("Sessions = %v, want [b a]", ids)
	}
}

func TestSQLiteTranscriptStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "transcripts.db")
	ctx := context.Background()

	first, err := NewSQLiteTranscriptStore(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Append(ctx, domain.TranscriptEntry{SessionID: "s1", Seq: 1, Agent: domain.QATester, Role: domain.RoleUser, Content: "q"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	first.Close()

	second, err := NewSQLiteTranscriptStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := second.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Content != "q" {
		t.Errorf("List after reopen = %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}
}

func TestNoopTranscriptStore(t *testing.T) {
	var s NoopTranscriptStore
	ctx := context.Background()
	if err := s.Append(ctx, domain.TranscriptEntry{}); err != nil {
		t.Errorf("Append: %v", err)
	}
	if got, err := s.List(ctx, "x"); err != nil || got != nil {
		t.Errorf("List = %v, %v", got, err)
	}
	if got, err := s.Sessions(ctx); err != nil || got != nil {
		t.Errorf("Sessions = %v, %v", got, err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestSQLiteTranscriptStore_CorruptTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO transcript (session_id, seq, agent, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		"s1", 1, string(domain.ProjectOrchestrator), domain.RoleUser, "hi", "yesterday")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := store.List(ctx, "s1"); err == nil {
		t.Fatal("expected error for unparseable created_at")
	}
}
