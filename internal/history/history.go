// Package history keeps a ledger of extraction attempts in a SQLite
// database so past failures can be listed and retried.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bookextract/internal/book"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	identifier   TEXT NOT NULL,
	url          TEXT NOT NULL,
	success      INTEGER NOT NULL,
	stage        TEXT NOT NULL DEFAULT '',
	error_kind   TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	output_path  TEXT NOT NULL DEFAULT '',
	size_bytes   INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	attempted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS attempts_identifier ON attempts(identifier);
CREATE INDEX IF NOT EXISTS attempts_attempted_at ON attempts(attempted_at);
`

// Entry is one recorded attempt.
type Entry struct {
	ID          string
	RunID       string
	Identifier  book.Identifier
	URL         string
	Success     bool
	Stage       book.Stage
	ErrorKind   book.Kind
	Error       string
	OutputPath  string
	Size        int64
	Duration    time.Duration
	AttemptedAt time.Time
}

// Ledger is an open history database.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One writer; the CLI never records concurrently.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record appends the outcome of one attempt.
func (l *Ledger) Record(ctx context.Context, runID string, r *book.Result) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO attempts (id, run_id, identifier, url, success, stage, error_kind, error,
			output_path, size_bytes, duration_ms, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), runID, string(r.Identifier), r.URL, r.Success,
		string(r.Stage), string(r.ErrorKind), r.Error, r.OutputPath, r.ByteSize,
		r.Duration.Milliseconds(), r.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("recording attempt for %s: %w", r.Identifier, err)
	}
	return nil
}

// Load returns the most recent attempts, newest first. A limit of zero or
// less returns everything.
func (l *Ledger) Load(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, run_id, identifier, url, success, stage, error_kind, error,
			output_path, size_bytes, duration_ms, attempted_at
		FROM attempts
		ORDER BY attempted_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			identifier string
			stage      string
			kind       string
			durationMS int64
			attempted  int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &identifier, &e.URL, &e.Success, &stage, &kind,
			&e.Error, &e.OutputPath, &e.Size, &durationMS, &attempted); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.Identifier = book.Identifier(identifier)
		e.Stage = book.Stage(stage)
		e.ErrorKind = book.Kind(kind)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.AttemptedAt = time.Unix(0, attempted)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes every attempt for identifier and reports how many were
// removed.
func (l *Ledger) Remove(ctx context.Context, id book.Identifier) (int64, error) {
	res, err := l.db.ExecContext(ctx, `DELETE FROM attempts WHERE identifier = ?`, string(id))
	if err != nil {
		return 0, fmt.Errorf("removing %s from history: %w", id, err)
	}
	return res.RowsAffected()
}

// FormatForDisplay renders entries as one line each.
func FormatForDisplay(entries []Entry, now time.Time) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		when := humanize.RelTime(e.AttemptedAt, now, "ago", "from now")
		var line string
		if e.Success {
			line = fmt.Sprintf("ok    %-24s %9s  %s", e.Identifier, humanize.IBytes(uint64(e.Size)), when)
		} else {
			line = fmt.Sprintf("FAIL  %-24s %9s  %s  [%s] %s", e.Identifier, e.Stage, when, e.ErrorKind, e.Error)
		}
		items = append(items, line)
	}
	return items
}
