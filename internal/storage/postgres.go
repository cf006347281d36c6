package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/assistenteze/agro/internal/database"
)

// PostgresStore keeps the slots in a jsonb column.
type PostgresStore struct {
	db *database.Database
}

// NewPostgresStore wraps db and creates the device_storage table if needed.
// The store takes ownership of db and closes it on Close.
func NewPostgresStore(ctx context.Context, db *database.Database) (*PostgresStore, error) {
	const ddl = `
		CREATE TABLE IF NOT EXISTS device_storage (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := db.Pool.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create device_storage table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.Pool.QueryRow(ctx, `SELECT value::text FROM device_storage WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	const stmt = `
		INSERT INTO device_storage (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.Pool.Exec(ctx, stmt, key, string(value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM device_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
