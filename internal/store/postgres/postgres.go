// Package postgres is a record store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/logging"
	"github.com/gompdf/cutticket/internal/record"
	"github.com/gompdf/cutticket/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	identifier TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_records_due_date ON records(due_date);
`

const columns = `id::text, title, identifier, due_date, status, data, created_at, updated_at`

// Store keeps records in a PostgreSQL table
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, pings the server and creates the schema
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Named("store")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 3 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info("postgres store opened", zap.String("host", config.ConnConfig.Host))
	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	s.logger.Debug("postgres store closed")
	return nil
}

func (s *Store) Create(ctx context.Context, rec *record.Record) (*record.Record, error) {
	row, err := store.ForCreate(rec)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, title, identifier, due_date, status, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID, row.Title, row.Identifier, row.DueDate, row.Status, row.Data, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	s.logger.Debug("record created", zap.String("id", row.ID))
	return row.Record()
}

func (s *Store) Get(ctx context.Context, id string) (*record.Record, error) {
	if !store.ValidID(id) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	row, err := scan(s.pool.QueryRow(ctx, `SELECT `+columns+` FROM records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
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
		query += ` WHERE status = $1`
		args = append(args, string(f.Status))
	}
	rows, err := s.pool.Query(ctx, query+" "+store.OrderBy, args...)
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
	if !store.ValidID(row.ID) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, row.ID)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE records SET title = $1, identifier = $2, due_date = $3, status = $4, data = $5, updated_at = $6
		 WHERE id = $7`,
		row.Title, row.Identifier, row.DueDate, row.Status, row.Data, row.UpdatedAt, row.ID)
	if err != nil {
		return nil, fmt.Errorf("update record %s: %w", row.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, row.ID)
	}
	return s.Get(ctx, row.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if !store.ValidID(id) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	s.logger.Debug("record deleted", zap.String("id", id))
	return nil
}

func scan(r pgx.Row) (store.Row, error) {
	var row store.Row
	err := r.Scan(&row.ID, &row.Title, &row.Identifier, &row.DueDate, &row.Status, &row.Data, &row.CreatedAt, &row.UpdatedAt)
	return row, err
}
