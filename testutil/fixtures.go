package testutil

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// CreateHistoryFixture creates a view history database holding rows
// written by an earlier run
func CreateHistoryFixture(t *testing.T, dbPath string, session string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
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
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	insertSQL := "INSERT INTO history (at, session, event, name, kind, media, source) VALUES (?, ?, 'view', ?, 'output', 'video', 'server')"
	for i, name := range names {
		at := base.Add(time.Duration(i) * time.Minute).UnixMilli()
		if _, err := db.Exec(insertSQL, at, session, name); err != nil {
			t.Fatalf("Failed to insert history row: %v", err)
		}
	}
}

// CreateConfigFixture writes a config.yaml into dir
func CreateConfigFixture(t *testing.T, dir, content string) string {
	t.Helper()
	return WriteFile(t, filepath.Join(dir, "config.yaml"), []byte(content))
}

// CreateStateFixture writes a state.yaml selecting session
func CreateStateFixture(t *testing.T, path, session string) {
	t.Helper()
	content := "session: " + session + "\nupdated_at: " + time.Now().UTC().Format(time.RFC3339) + "\n"
	WriteFile(t, path, []byte(content))
}

// ID3WithPicture builds a minimal ID3v2.3 tag carrying one APIC frame
func ID3WithPicture(mimeType string, picture []byte) []byte {
	var frame bytes.Buffer
	frame.WriteByte(0) // ISO-8859-1
	frame.WriteString(mimeType)
	frame.WriteByte(0)
	frame.WriteByte(3) // front cover
	frame.WriteByte(0) // empty description
	frame.Write(picture)

	var body bytes.Buffer
	body.WriteString("APIC")
	_ = binary.Write(&body, binary.BigEndian, uint32(frame.Len()))
	body.Write([]byte{0, 0})
	body.Write(frame.Bytes())

	size := body.Len()
	var tag bytes.Buffer
	tag.WriteString("ID3")
	tag.Write([]byte{3, 0, 0})
	tag.Write([]byte{
		byte(size >> 21 & 0x7f),
		byte(size >> 14 & 0x7f),
		byte(size >> 7 & 0x7f),
		byte(size & 0x7f),
	})
	tag.Write(body.Bytes())
	return tag.Bytes()
}
