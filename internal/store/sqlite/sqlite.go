// Package sqlite is a record store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	identifier TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_records_due_date ON records(due_date);
`

const columns = `id, title, identifier, due_date, status, data, created_at, updated_at`

// Store keeps records in one SQLite file
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database at path. ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Named("store")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" a single database and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Debug("sqlite store opened", zap.String("path", path))
	return &Store{db: db, path: path, logger: logger}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, rec *record.Record) (*record.Record, error) {
	row, err := store.ForCreate(rec)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Title, row.Identifier, row.DueDate, row.Status, string(row.Data),
		formatTime(row.CreatedAt), formatTime(row.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	s.logger.Debug("record created", zap.String("id", row.ID))
	return row.Record()
}

func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	r := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM records WHERE id = ?`, id)
	row, err := scan(r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return row.Record()
}

func (s *Store) List(ctx context.Context, f store.Filter) ([]*record.Record, error) {
	query := `SELECT ` + columns + ` FROM records`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	rows, err := s.db.QueryContext(ctx, query+" "+store.OrderBy, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		rec, err := row.Record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, rec *record.Record) (*record.Record, error) {
	row, err := store.ForUpdate(rec)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET title = ?, identifier = ?, due_date = ?, status = ?, data = ?, updated_at = ? WHERE id = ?`,
		row.Title, row.Identifier, row.DueDate, row.Status, string(row.Data), formatTime(row.UpdatedAt), row.ID)
	if err != nil {
		return nil, fmt.Errorf("update record %s: %w", row.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, row.ID)
	}
	return s.Get(ctx, row.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	s.logger.Debug("record deleted", zap.String("id", id))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(sc scanner) (store.Row, error) {
	var (
		row              store.Row
		data             string
		created, updated string
	)
	err := sc.Scan(&row.ID, &row.Title, &row.Identifier, &row.DueDate, &row.Status, &data, &created, &updated)
	if err != nil {
		return store.Row{}, err
	}
	row.Data = []byte(data)
	if row.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Row{}, fmt.Errorf("created_at of %s: %w", row.ID, err)
	}
	if row.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return store.Row{}, fmt.Errorf("updated_at of %s: %w", row.ID, err)
	}
	return row, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
