package attachment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"hr-go/internal/database"
	"hr-go/internal/database/migrations"
	"hr-go/internal/hr"
)

var _ hr.AttachmentStore = (*SQLiteStore)(nil)

// SQLiteStore keeps attachments in their own SQLite database, separate from the
// register collections.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Nothing is opened until Open.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Open connects to the database and migrates it to the latest schema.
// Opening an already open store is a no-op.
func (s *SQLiteStore) Open(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := database.OpenConnection(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", hr.ErrStoreUnavailable, err)
	}
	if err := migrations.MigrateUp(db, migrations.Attachments); err != nil {
		db.Close()
		return fmt.Errorf("%w: migrating %s: %v", hr.ErrStoreUnavailable, s.path, err)
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, hr.ErrStoreUnavailable
	}
	return s.db, nil
}

func (s *SQLiteStore) Put(ctx context.Context, a *hr.Attachment) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO attachments (id, hindrance_id, name, mime_type, data, uploaded_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM attachments))
		ON CONFLICT (id) DO UPDATE SET
			hindrance_id = excluded.hindrance_id,
			name = excluded.name,
			mime_type = excluded.mime_type,
			data = excluded.data,
			uploaded_at = excluded.uploaded_at`,
		a.ID, a.HindranceID, a.Name, a.MimeType, a.Data, a.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing attachment %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*hr.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT id, hindrance_id, name, mime_type, data, uploaded_at FROM attachments WHERE id = ?", id)
	a, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading attachment %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) ListByOwner(ctx context.Context, hindranceID string) ([]*hr.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT id, hindrance_id, name, mime_type, data, uploaded_at FROM attachments WHERE hindrance_id = ? ORDER BY seq",
		hindranceID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments of %s: %w", hindranceID, err)
	}
	defer rows.Close()

	var out []*hr.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return false, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM attachments WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting attachment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting attachment %s: %w", id, err)
	}
	return n > 0, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations reports whether the open database is at the latest attachments schema.
func (s *SQLiteStore) CheckMigrations() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return err
	}
	return migrations.CheckDBMigrationStatus(db, migrations.Attachments)
}

// Close closes the connection. Later calls fail with ErrStoreUnavailable until the
// store is opened again.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row scanner) (*hr.Attachment, error) {
	var a hr.Attachment
	var uploadedAt string
	if err := row.Scan(&a.ID, &a.HindranceID, &a.Name, &a.MimeType, &a.Data, &uploadedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing uploaded_at %q: %w", uploadedAt, err)
	}
	a.UploadedAt = t
	return &a, nil
}
