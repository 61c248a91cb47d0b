package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hr-go/internal/database"
	"hr-go/internal/database/migrations"
	"hr-go/internal/hr"
)

var _ hr.KeyValueStore = (*SQLiteStore)(nil)

// SQLiteStore keeps each collection as one row of the collections table.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens the database at path and migrates it to the latest schema.
// path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := database.OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db, migrations.KV); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM collections WHERE name = ?", collection).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection %s: %w", collection, err)
	}
	return data, nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, data, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, data)
	if err != nil {
		return fmt.Errorf("writing collection %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return fmt.Errorf("removing collection %s: %w", collection, err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, migrations.KV)
}

// BackupTo copies the database file to destPath.
func (s *SQLiteStore) BackupTo(destPath string) error {
	return database.BackupTo(s.db, destPath)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
