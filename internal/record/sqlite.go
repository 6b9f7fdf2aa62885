package record

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// timeLayout is the stored occurred_at text form; it sorts chronologically.
const timeLayout = "2006-01-02 15:04:05"

const schemaWaterflow = `
CREATE TABLE IF NOT EXISTS waterflow (
    id TEXT PRIMARY KEY,
    occurred_at TEXT NOT NULL,
    switch_status TEXT NOT NULL,
    comment TEXT NOT NULL
);
`

// SQLite stores records in the waterflow table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database file at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// One writer: the control loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if _, err := db.Exec(schemaWaterflow); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return NewSQLite(db), nil
}

// NewSQLite wraps an existing handle. The schema must already exist.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// Record inserts one entry.
func (s *SQLite) Record(ctx context.Context, status Status, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO waterflow (id, occurred_at, switch_status, comment)
		VALUES (?, ?, ?, ?)
	`,
		uuid.NewString(),
		s.now().UTC().Format(timeLayout),
		string(status),
		message,
	)
	if err != nil {
		return fmt.Errorf("insert waterflow record: %w", err)
	}
	return nil
}

// List returns entries with occurred_at in [from, to], oldest first.
// Zero bounds are open.
func (s *SQLite) List(ctx context.Context, from, to time.Time) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC().Format(timeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC().Format(timeLayout))
	}

	q := `SELECT id, occurred_at, switch_status, comment FROM waterflow`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC, rowid ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query waterflow: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			at     string
			status string
		)
		if err := rows.Scan(&e.ID, &at, &status, &e.Message); err != nil {
			return nil, fmt.Errorf("scan waterflow: %w", err)
		}
		e.OccurredAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", at, err)
		}
		e.Status = Status(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
