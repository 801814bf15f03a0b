// Package sqlite provides a SQLite-backed trace store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/tales/pkg/storage"
	"github.com/papercomputeco/tales/pkg/trace"
)

const schema = `
CREATE TABLE IF NOT EXISTS turn_traces (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	session_id TEXT NOT NULL,
	template   TEXT NOT NULL,
	phase      TEXT NOT NULL,
	intent     TEXT NOT NULL DEFAULT '',
	prompt     TEXT NOT NULL,
	response   TEXT NOT NULL,
	output     TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_turn_traces_session ON turn_traces(session_id, seq);
`

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver opens dbPath, which can be a file path or ":memory:", and
// creates the schema.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Driver{db: db}, nil
}

func (d *Driver) Append(ctx context.Context, rec *trace.Record) error {
	if rec == nil {
		return trace.ErrNilRecord
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO turn_traces (id, created_at, session_id, template, phase, intent, prompt, response, output, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UTC().Format(time.RFC3339Nano), rec.SessionID, rec.Template, rec.Phase,
		rec.Intent, rec.Prompt, rec.Response, rec.Output, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting trace %s: %w", rec.ID, err)
	}
	return nil
}

func (d *Driver) List(ctx context.Context, sessionID string, limit int) ([]*trace.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, created_at, session_id, template, phase, intent, prompt, response, output, error
		FROM (
			SELECT * FROM turn_traces WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing traces: %w", err)
	}
	defer rows.Close()

	var out []*trace.Record
	for rows.Next() {
		var (
			rec     trace.Record
			created string
		)
		if err := rows.Scan(&rec.ID, &created, &rec.SessionID, &rec.Template, &rec.Phase,
			&rec.Intent, &rec.Prompt, &rec.Response, &rec.Output, &rec.Error); err != nil {
			return nil, fmt.Errorf("scanning trace: %w", err)
		}
		rec.Time, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parsing trace time %q: %w", created, err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (d *Driver) Close() error {
	return d.db.Close()
}

var _ storage.Driver = (*Driver)(nil)
