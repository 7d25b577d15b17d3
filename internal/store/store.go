package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Event kinds.
const (
	KindLoad  = "load"
	KindFetch = "fetch"
)

// Event is one recorded activity. Only metadata is kept: no cell values,
// query parameters or credentials.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Status    int       `json:"status,omitempty"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an sqlite-backed activity log. A nil *Store is a disabled log:
// writes are dropped and reads return nothing.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		kind TEXT,
		source TEXT,
		row_count INTEGER,
		column_count INTEGER,
		status INTEGER,
		outcome TEXT,
		created_at DATETIME
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// RecordLoad logs an upload attempt. outcome is "ok" or an error class.
func (s *Store) RecordLoad(ctx context.Context, sessionID, filename string, rows, cols int, outcome string) error {
	return s.insert(ctx, Event{SessionID: sessionID, Kind: KindLoad, Source: filepath.Base(filename), Rows: rows, Columns: cols, Outcome: outcome})
}

// RecordFetch logs an API fetch. The query string is stripped from endpoint.
func (s *Store) RecordFetch(ctx context.Context, sessionID, endpoint string, status, rows, cols int, outcome string) error {
	return s.insert(ctx, Event{SessionID: sessionID, Kind: KindFetch, Source: stripQuery(endpoint), Status: status, Rows: rows, Columns: cols, Outcome: outcome})
}

func (s *Store) insert(ctx context.Context, ev Event) error {
	if s == nil {
		return nil
	}
	ev.ID = uuid.NewString()
	ev.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (id, session_id, kind, source, row_count, column_count, status, outcome, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.Kind, ev.Source, ev.Rows, ev.Columns, ev.Status, ev.Outcome, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Kind, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if s == nil {
		return []Event{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, source, row_count, column_count, status, outcome, created_at FROM activity ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &ev.Source, &ev.Rows, &ev.Columns, &ev.Status, &ev.Outcome, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func stripQuery(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.RawQuery, u.Fragment, u.User = "", "", nil
	return u.String()
}
