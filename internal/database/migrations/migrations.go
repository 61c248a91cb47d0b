package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/kv/*.sql files/attachments/*.sql
var migrationFiles embed.FS

// Set names one schema. The collections database and the attachments database are
// separate files and are migrated independently.
type Set string

const (
	KV          Set = "kv"
	Attachments Set = "attachments"
)

func (s Set) dir() string {
	return path.Join("files", string(s))
}

// ErrNotMigrated is reported for a database that has never been migrated.
var ErrNotMigrated = errors.New("database has no schema version (needs migration)")

// Status is the schema state of one database against the migrations embedded in the
// binary. Current is 0 when the database was never migrated.
type Status struct {
	Set     Set
	Current uint
	Latest  uint
	Dirty   bool
}

// Err describes why the schema is not usable, or returns nil when it is current.
func (s Status) Err() error {
	switch {
	case s.Current == 0:
		return ErrNotMigrated
	case s.Dirty:
		return fmt.Errorf("%s schema is dirty at version %d (a migration failed part way)", s.Set, s.Current)
	case s.Current < s.Latest:
		return fmt.Errorf("%s schema is at version %d, binary expects %d", s.Set, s.Current, s.Latest)
	case s.Current > s.Latest:
		return fmt.Errorf("%s schema version %d is newer than this binary (%d); upgrade hr", s.Set, s.Current, s.Latest)
	}
	return nil
}

func (s Status) String() string {
	state := "current"
	if s.Err() != nil {
		state = "needs attention"
	}
	return fmt.Sprintf("%s v%d/%d %s", s.Set, s.Current, s.Latest, state)
}

// ReadStatus compares the version recorded in db with the newest embedded migration of set.
func ReadStatus(db *sql.DB, set Set) (Status, error) {
	st := Status{Set: set}

	latest, err := latestVersion(set)
	if err != nil {
		return st, fmt.Errorf("reading %s migrations: %w", set, err)
	}
	st.Latest = latest

	m, err := newMigrate(db, set)
	if err != nil {
		return st, err
	}
	// m is not closed: that would close db, which belongs to the caller.

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("reading %s schema version: %w", set, err)
	}
	st.Current, st.Dirty = version, dirty
	return st, nil
}

// CheckDBMigrationStatus returns nil when the schema of set in db is at the latest version.
func CheckDBMigrationStatus(db *sql.DB, set Set) error {
	st, err := ReadStatus(db, set)
	if err != nil {
		return err
	}
	return st.Err()
}

// MigrateUp applies the pending migrations of set. An up-to-date database is left as is.
func MigrateUp(db *sql.DB, set Set) error {
	m, err := newMigrate(db, set)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating %s schema: %w", set, err)
	}
	return nil
}

func newMigrate(db *sql.DB, set Set) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, set.dir())
	if err != nil {
		return nil, fmt.Errorf("opening %s migrations: %w", set, err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating %s migrator: %w", set, err)
	}
	return m, nil
}

// latestVersion walks the embedded migrations of set to the highest version.
func latestVersion(set Set) (uint, error) {
	src, err := iofs.New(migrationFiles, set.dir())
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			// Next fails once there are no more migrations
			return v, nil
		}
		v = next
	}
}
