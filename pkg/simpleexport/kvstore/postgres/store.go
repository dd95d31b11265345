package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-export/pkg/simpleexport/kvstore"
)

// Schema creates the table backing the store
const Schema = `
CREATE TABLE IF NOT EXISTS export_store (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements kvstore.Store using PostgreSQL
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Migrate creates the store table when it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return s.handlePostgresError("migrate", err)
	}
	return nil
}

func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("value is not valid json: %s", pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if key == "" {
		return s.all(ctx)
	}

	var data []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM export_store WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kvstore.KeyError(key)
	}
	if err != nil {
		return nil, s.handlePostgresError("get", err)
	}
	return kvstore.Decode(data)
}

func (s *Store) all(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.Query(ctx, `SELECT key, value FROM export_store ORDER BY key`)
	if err != nil {
		return nil, s.handlePostgresError("get all", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, s.handlePostgresError("get all", err)
		}
		v, err := kvstore.Decode(data)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, s.handlePostgresError("get all", err)
	}
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := kvstore.Encode(value)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO export_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.db.Exec(ctx, query, key, data); err != nil {
		return s.handlePostgresError("set", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM export_store WHERE key = $1`, key); err != nil {
		return s.handlePostgresError("delete", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key FROM export_store ORDER BY key`)
	if err != nil {
		return nil, s.handlePostgresError("keys", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, s.handlePostgresError("keys", err)
	}
	return keys, nil
}

var _ kvstore.Store = (*Store)(nil)
