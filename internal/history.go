package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS history (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	at      INTEGER NOT NULL,
	session TEXT NOT NULL,
	event   TEXT NOT NULL,
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL DEFAULT '',
	media   TEXT NOT NULL DEFAULT '',
	seek    REAL,
	source  TEXT NOT NULL DEFAULT '',
	label   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS history_at ON history(at);
`

// HistoryEvent distinguishes journal entries
type HistoryEvent string

const (
	HistoryView       HistoryEvent = "view"
	HistoryAnnotation HistoryEvent = "annotation"
)

// HistoryEntry is one journal row
type HistoryEntry struct {
	ID        int64
	At        time.Time
	SessionID string
	Event     HistoryEvent
	Name      string
	Kind      FileKind
	Type      MediaType
	Timestamp *float64
	Source    ViewSource
	Label     string
}

// ViewHistory is a local SQLite journal of what was shown and annotated
type ViewHistory struct {
	db *sql.DB
}

// OpenViewHistory opens (creating if needed) the journal at path
func OpenViewHistory(path string) (*ViewHistory, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &ViewHistory{db: db}, nil
}

// Close closes the database
func (h *ViewHistory) Close() error {
	return h.db.Close()
}

// Record appends e, filling At when zero
func (h *ViewHistory) Record(e HistoryEntry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	var seek sql.NullFloat64
	if e.Timestamp != nil {
		seek = sql.NullFloat64{Float64: *e.Timestamp, Valid: true}
	}
	_, err := h.db.Exec(
		`INSERT INTO history (at, session, event, name, kind, media, seek, source, label)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixMilli(), e.SessionID, string(e.Event), e.Name,
		string(e.Kind), string(e.Type), seek, string(e.Source), e.Label,
	)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty sessionID
// matches every session.
func (h *ViewHistory) Recent(sessionID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, at, session, event, name, kind, media, seek, source, label
		FROM history WHERE (? = '' OR session = ?) ORDER BY at DESC, id DESC LIMIT ?`
	rows, err := h.db.Query(query, sessionID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e                          HistoryEntry
			at                         int64
			event, kind, media, source string
			seek                       sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &at, &e.SessionID, &event, &e.Name, &kind, &media, &seek, &source, &e.Label); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		e.At = time.UnixMilli(at)
		e.Event = HistoryEvent(event)
		e.Kind = FileKind(kind)
		e.Type = MediaType(media)
		e.Source = ViewSource(source)
		if seek.Valid {
			v := seek.Float64
			e.Timestamp = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// RecordingOpener journals every request before passing it on
type RecordingOpener struct {
	Next    ViewOpener
	History *ViewHistory
	Session func() string
}

// Open implements ViewOpener
func (r *RecordingOpener) Open(req ViewRequest) {
	var session string
	if r.Session != nil {
		session = r.Session()
	}
	err := r.History.Record(HistoryEntry{
		SessionID: session,
		Event:     HistoryView,
		Name:      req.Name,
		Kind:      req.Kind,
		Type:      req.Type,
		Timestamp: req.Timestamp,
		Source:    req.Source,
	})
	if err != nil {
		LogWarn("Failed to record view of %s: %v", req.Name, err)
	}
	r.Next.Open(req)
}
