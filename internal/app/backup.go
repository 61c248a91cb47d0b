package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"hr-go/internal/export"
	"hr-go/internal/hr"
	"hr-go/internal/kvstore"
)

// CreateBackup exports a snapshot to the configured vault and returns its name.
func (a *HRApp) CreateBackup(ctx context.Context) (string, error) {
	name, err := a.register.Backups.Export(ctx)
	a.track(err, false)
	return name, err
}

// ListBackups returns the snapshot names held by the vault.
func (a *HRApp) ListBackups() ([]string, error) {
	return a.register.Backups.ListArchives()
}

// RestoreBackup restores the named snapshot from the vault.
func (a *HRApp) RestoreBackup(ctx context.Context, name string) error {
	err := a.register.Backups.Import(ctx, name)
	a.track(err, false)
	return err
}

// WriteSnapshot writes a snapshot of the register to w as indented JSON.
func (a *HRApp) WriteSnapshot(ctx context.Context, w io.Writer) (*hr.Backup, error) {
	b, err := a.register.Backups.CreateSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}
	return b, nil
}

// RestoreFrom parses a snapshot from r and restores it.
func (a *HRApp) RestoreFrom(ctx context.Context, r io.Reader) error {
	b, err := hr.ParseBackup(r)
	if err == nil {
		err = a.register.Backups.Restore(ctx, b)
	}
	a.track(err, false)
	return err
}

// LastBackup returns when the last snapshot was taken, or nil.
func (a *HRApp) LastBackup(ctx context.Context) (*time.Time, error) {
	return a.register.Settings.LastBackup(ctx)
}

// ExportRegister writes the register matching f as an xlsx workbook and returns the
// suggested file name.
func (a *HRApp) ExportRegister(ctx context.Context, w io.Writer, f *hr.Filter) (string, error) {
	project, err := a.register.Settings.ProjectConfig(ctx)
	if err != nil {
		return "", err
	}
	views, err := a.ListRecords(ctx, f)
	if err != nil {
		return "", err
	}
	if err := export.WriteRegister(w, project, views); err != nil {
		return "", err
	}
	return export.FileName(project, a.clock.Now()), nil
}

// ProjectConfig returns the project configuration document.
func (a *HRApp) ProjectConfig(ctx context.Context) (*hr.ProjectConfig, error) {
	return a.register.Settings.ProjectConfig(ctx)
}

// SaveProjectConfig replaces the project configuration document.
func (a *HRApp) SaveProjectConfig(ctx context.Context, cfg *hr.ProjectConfig) error {
	err := a.register.Settings.SaveProjectConfig(ctx, cfg)
	a.track(err, true)
	return err
}

// SystemConfig returns the system configuration document.
func (a *HRApp) SystemConfig(ctx context.Context) (*hr.SystemConfig, error) {
	return a.register.Settings.SystemConfig(ctx)
}

// SaveSystemConfig replaces the system configuration document.
func (a *HRApp) SaveSystemConfig(ctx context.Context, cfg *hr.SystemConfig) error {
	err := a.register.Settings.SaveSystemConfig(ctx, cfg)
	a.track(err, true)
	return err
}

// StoreStatus describes one storage backend for `hr db status`.
type StoreStatus struct {
	Name    string
	Backend string
	Detail  string
	Err     error
}

type migrationChecker interface {
	CheckMigrations() error
	Path() string
}

// DBStatus reports the backends in use and, for SQLite files, whether their schema is
// current.
func (a *HRApp) DBStatus() []StoreStatus {
	out := []StoreStatus{
		describe("collections", a.cfg.Store.Type, a.kv),
		describe("attachments", a.cfg.Attachments.Type, a.attachments),
	}
	if a.vault != nil {
		st := StoreStatus{Name: "vault", Backend: a.cfg.Vaults[0].Type, Detail: a.cfg.Vaults[0].Name}
		st.Err = a.vault.ValidateSetup()
		out = append(out, st)
	}
	return out
}

func describe(name, backend string, store any) StoreStatus {
	st := StoreStatus{Name: name, Backend: backend}
	if mc, ok := store.(migrationChecker); ok {
		st.Detail = mc.Path()
		st.Err = mc.CheckMigrations()
	}
	return st
}

// BackupDatabase copies the SQLite collections database to destPath.
func (a *HRApp) BackupDatabase(destPath string) error {
	s, ok := a.kv.(*kvstore.SQLiteStore)
	if !ok {
		return fmt.Errorf("database file backup needs the sqlite store, have %s", a.cfg.Store.Type)
	}
	if err := s.BackupTo(destPath); err != nil {
		return fmt.Errorf("backing up %s: %w", s.Path(), err)
	}
	a.logger.Info("database copied", "from", s.Path(), "to", destPath)
	return nil
}
