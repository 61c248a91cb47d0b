package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // Postgres driver

	"hr-go/internal/hr"
)

var _ hr.KeyValueStore = (*PostgresStore)(nil)

const createCollectionsTable = `CREATE TABLE IF NOT EXISTS hr_collections (
	name       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps each collection as one JSONB row, for sites that already run
// a shared Postgres server.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and creates the collections table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	s, err := NewPostgresStoreFromDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection and creates the collections table
// if needed.
func NewPostgresStoreFromDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, createCollectionsTable); err != nil {
		return nil, fmt.Errorf("creating collections table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM hr_collections WHERE name = $1", collection).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection %s: %w", collection, err)
	}
	return data, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hr_collections (name, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, string(data))
	if err != nil {
		return fmt.Errorf("writing collection %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM hr_collections WHERE name = $1", collection); err != nil {
		return fmt.Errorf("removing collection %s: %w", collection, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
