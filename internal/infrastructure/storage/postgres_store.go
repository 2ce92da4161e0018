package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

const defaultBlobTable = "alert_blobs"

// PostgresBlobStore persists blobs as rows of a key/value table.
type PostgresBlobStore struct {
	db    *sql.DB
	table string
	psql  sq.StatementBuilderType
}

var _ ports.BlobStore = (*PostgresBlobStore)(nil)

// NewPostgresBlobStore wires a sql.DB implementation.
func NewPostgresBlobStore(db *sql.DB, table string) *PostgresBlobStore {
	if table == "" {
		table = defaultBlobTable
	}
	return &PostgresBlobStore{
		db:    db,
		table: table,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// OpenPostgres connects to the DSN and makes sure the blob table exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresBlobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresBlobStore(db, table)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresBlobStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createTableSQL(s.table))
	if err != nil {
		return fmt.Errorf("create blob table: %w", err)
	}
	return nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
              key TEXT PRIMARY KEY,
              value BYTEA NOT NULL,
              updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
          )`, pq.QuoteIdentifier(table))
}

// Get returns the value stored under key or store.ErrNotFound.
func (s *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, store.ErrNotFound
	}

	query, args, err := s.selectQuery(key)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var value []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query blob %s: %w", key, err)
	}
	return value, nil
}

// Put upserts the value under key.
func (s *PostgresBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return nil
	}

	query, args, err := s.upsertQuery(key, value)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert blob %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresBlobStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresBlobStore) selectQuery(key string) (string, []interface{}, error) {
	return s.psql.
		Select("value").
		From(pq.QuoteIdentifier(s.table)).
		Where(sq.Eq{"key": key}).
		ToSql()
}

func (s *PostgresBlobStore) upsertQuery(key string, value []byte) (string, []interface{}, error) {
	return s.psql.
		Insert(pq.QuoteIdentifier(s.table)).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
}
