package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"devteam-ai/internal/domain"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteTranscriptStore implements domain.TranscriptStore using SQLite.
type SQLiteTranscriptStore struct {
	db *sql.DB
}

// NewSQLiteTranscriptStore opens (or creates) a SQLite database at dbPath
// and runs the schema migration.
func NewSQLiteTranscriptStore(dbPath string) (*SQLiteTranscriptStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create transcript dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate transcript db: %w", err)
	}
	return &SQLiteTranscriptStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcript (
			session_id TEXT    NOT NULL,
			seq        INTEGER NOT NULL,
			agent      TEXT    NOT NULL,
			role       TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			handoff_to TEXT    NOT NULL DEFAULT '',
			created_at TEXT    NOT NULL,
			PRIMARY KEY (session_id, seq)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteTranscriptStore) Close() error {
	return s.db.Close()
}

// Append stores e. A repeated (session, seq) pair is rejected.
func (s *SQLiteTranscriptStore) Append(ctx context.Context, e domain.TranscriptEntry) error {
	if e.SessionID == "" {
		return domain.NewDomainError("SQLiteTranscriptStore.Append", domain.ErrInvalidInput, "empty session id")
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transcript (session_id, seq, agent, role, content, handoff_to, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.SessionID, e.Seq, string(e.Agent), e.Role, e.Content, string(e.HandoffTo),
		created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTranscriptWrite, err)
	}
	return nil
}

// List returns the entries of sessionID in sequence order.
func (s *SQLiteTranscriptStore) List(ctx context.Context, sessionID string) ([]domain.TranscriptEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, seq, agent, role, content, handoff_to, created_at FROM transcript WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TranscriptEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Sessions returns every recorded session id, oldest first.
func (s *SQLiteTranscriptStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id FROM transcript GROUP BY session_id ORDER BY MIN(created_at), session_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanEntry(rows *sql.Rows) (domain.TranscriptEntry, error) {
	var e domain.TranscriptEntry
	var agent, handoff, createdStr string
	if err := rows.Scan(&e.SessionID, &e.Seq, &agent, &e.Role, &e.Content, &handoff, &createdStr); err != nil {
		return e, err
	}
	e.Agent = domain.AgentType(agent)
	e.HandoffTo = domain.AgentType(handoff)
	created, err := time.Parse(timeLayout, createdStr)
	if err != nil {
		return e, fmt.Errorf("parse created_at of %s/%d: %w", e.SessionID, e.Seq, err)
	}
	e.CreatedAt = created
	return e, nil
}
