// Package journal keeps a history of printed labels in sqlite.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Status of a print job.
const (
	StatusPrinted  = "printed"
	StatusFailed   = "failed"
	StatusNotFound = "not_found"
)

// Source of a print job.
const (
	SourceRFID   = "rfid"
	SourceWeb    = "web"
	SourceMQTT   = "mqtt"
	SourcePipe   = "pipe"
	SourceButton = "button"
)

const schema = `
CREATE TABLE IF NOT EXISTS prints (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	source      TEXT NOT NULL,
	tag         TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	second_line TEXT NOT NULL DEFAULT '',
	label_size  TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS prints_created_at ON prints (created_at);
`

// Entry is one journal row.
type Entry struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"`
	Tag        string    `json:"tag,omitempty"`
	Name       string    `json:"name,omitempty"`
	SecondLine string    `json:"second_line,omitempty"`
	LabelSize  string    `json:"label_size,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// Journal records print jobs.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal database at path. The parent directory
// is created if needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Record stores e, filling in ID and CreatedAt when empty, and returns the
// stored entry.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO prints (id, created_at, source, tag, name, second_line, label_size, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UnixMilli(), e.Source, e.Tag, e.Name, e.SecondLine, e.LabelSize, e.Status, e.Error)
	if err != nil {
		return Entry{}, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, created_at, source, tag, name, second_line, label_size, status, error
		 FROM prints ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.ID, &ms, &e.Source, &e.Tag, &e.Name, &e.SecondLine, &e.LabelSize, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastPrinted returns the most recent successfully printed entry.
func (j *Journal) LastPrinted(ctx context.Context) (Entry, bool, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, tag, name, second_line, label_size, status, error
		 FROM prints WHERE status = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, StatusPrinted)

	var e Entry
	var ms int64
	err := row.Scan(&e.ID, &ms, &e.Source, &e.Tag, &e.Name, &e.SecondLine, &e.LabelSize, &e.Status, &e.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query last print: %w", err)
	}
	e.CreatedAt = time.UnixMilli(ms)
	return e, true, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
