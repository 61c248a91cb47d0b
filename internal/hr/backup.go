package hr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// BackupVersion is written into every snapshot.
const BackupVersion = "1.0.0"

// Backup is a whole-register snapshot. It is also the on-disk backup file format.
type Backup struct {
	Version   string      `json:"version"`
	CreatedAt time.Time   `json:"createdAt"`
	Data      *BackupData `json:"data"`
}

// BackupData holds the snapshotted collections. A nil field means the collection is not
// part of the bundle, which is different from an empty list.
type BackupData struct {
	Hindrances    *[]*Hindrance  `json:"hindrances,omitempty"`
	Users         *[]*User       `json:"users,omitempty"`
	ProjectConfig *ProjectConfig `json:"projectConfig,omitempty"`
	SystemConfig  *SystemConfig  `json:"systemConfig,omitempty"`
	AuditLog      *[]*AuditEntry `json:"auditLog,omitempty"`
}

// ParseBackup decodes a backup file. A file that is not JSON or has no data object
// yields ErrInvalidFormat.
func ParseBackup(r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if b.Data == nil {
		return nil, fmt.Errorf("%w: backup has no data", ErrInvalidFormat)
	}
	return &b, nil
}

// BackupManager snapshots and restores the register as one unit. It writes collections
// directly and never goes through the audited record path.
type BackupManager struct {
	records  *RecordStore
	audit    *AuditLog
	settings *Settings
	vault    Vault
	logger   Logger
	clock    Clock
}

// NewBackupManager creates a BackupManager. vault may be nil when no archive
// destination is configured; Export, Import and ListArchives then fail.
func NewBackupManager(records *RecordStore, audit *AuditLog, settings *Settings, vault Vault, logger Logger, clock Clock) *BackupManager {
	return &BackupManager{
		records:  records,
		audit:    audit,
		settings: settings,
		vault:    vault,
		logger:   logger,
		clock:    clock,
	}
}

// lockAll takes every collection lock in the fixed order records, users, audit, settings.
func (m *BackupManager) lockAll() func() {
	m.records.hindranceMu.Lock()
	m.records.userMu.Lock()
	m.audit.mu.Lock()
	m.settings.mu.Lock()
	return func() {
		m.settings.mu.Unlock()
		m.audit.mu.Unlock()
		m.records.userMu.Unlock()
		m.records.hindranceMu.Unlock()
	}
}

// CreateSnapshot reads every collection into a Backup and records the snapshot time.
// No audit entry is written.
func (m *BackupManager) CreateSnapshot(ctx context.Context) (*Backup, error) {
	unlock := m.lockAll()
	defer unlock()

	hindrances, err := m.records.loadHindrances(ctx)
	if err != nil {
		return nil, err
	}
	users, err := m.records.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	auditLog, err := m.audit.load(ctx)
	if err != nil {
		return nil, err
	}
	project, err := m.settings.projectConfigLocked(ctx)
	if err != nil {
		return nil, err
	}
	system, err := m.settings.systemConfigLocked(ctx)
	if err != nil {
		return nil, err
	}
	if hindrances == nil {
		hindrances = []*Hindrance{}
	}
	if users == nil {
		users = []*User{}
	}
	if auditLog == nil {
		auditLog = []*AuditEntry{}
	}

	now := m.clock.Now()
	if err := saveJSON(ctx, m.settings.kv, CollectionLastBackup, now); err != nil {
		return nil, fmt.Errorf("recording backup time: %w", err)
	}

	m.logger.Info("snapshot created", "hindrances", len(hindrances), "users", len(users), "auditEntries", len(auditLog))
	return &Backup{
		Version:   BackupVersion,
		CreatedAt: now,
		Data: &BackupData{
			Hindrances:    &hindrances,
			Users:         &users,
			ProjectConfig: project,
			SystemConfig:  system,
			AuditLog:      &auditLog,
		},
	}, nil
}

// Restore overwrites every collection present in b and leaves the others untouched.
// A restored audit log longer than the ledger capacity keeps its newest entries.
// Restore is not transactional: on error, collections written before the failure stay
// written. Restoring the same bundle twice yields the same state.
func (m *BackupManager) Restore(ctx context.Context, b *Backup) error {
	if b == nil || b.Data == nil {
		return fmt.Errorf("%w: backup has no data", ErrInvalidFormat)
	}
	d := b.Data

	unlock := m.lockAll()
	defer unlock()

	restored := 0
	if d.Hindrances != nil {
		if err := saveJSON(ctx, m.records.kv, CollectionHindrances, nonNil(*d.Hindrances)); err != nil {
			return fmt.Errorf("restoring hindrances: %w", err)
		}
		restored++
	}
	if d.Users != nil {
		if err := saveJSON(ctx, m.records.kv, CollectionUsers, nonNil(*d.Users)); err != nil {
			return fmt.Errorf("restoring users: %w", err)
		}
		restored++
	}
	if d.ProjectConfig != nil {
		if err := saveJSON(ctx, m.settings.kv, CollectionProjectConfig, d.ProjectConfig); err != nil {
			return fmt.Errorf("restoring project config: %w", err)
		}
		restored++
	}
	if d.SystemConfig != nil {
		if err := saveJSON(ctx, m.settings.kv, CollectionSystemConfig, d.SystemConfig); err != nil {
			return fmt.Errorf("restoring system config: %w", err)
		}
		restored++
	}
	if d.AuditLog != nil {
		if err := m.audit.replaceLocked(ctx, *d.AuditLog); err != nil {
			return fmt.Errorf("restoring audit log: %w", err)
		}
		restored++
	}

	m.logger.Info("backup restored", "version", b.Version, "collections", restored)
	return nil
}

// ArchiveName returns the vault name used for a snapshot taken at t.
func ArchiveName(t time.Time) string {
	return "hr-backup-" + t.UTC().Format("20060102T150405Z") + ".json"
}

var errNoVault = errors.New("no backup vault configured")

// Export takes a snapshot and stores it in the vault. It returns the archive name.
func (m *BackupManager) Export(ctx context.Context) (string, error) {
	if m.vault == nil {
		return "", errNoVault
	}
	b, err := m.CreateSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	name := ArchiveName(b.CreatedAt)
	if err := m.vault.PutBackup(name, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	m.logger.Info("snapshot exported", "name", name, "bytes", len(data))
	return name, nil
}

// Import reads the named archive from the vault and restores it.
func (m *BackupManager) Import(ctx context.Context, name string) error {
	if m.vault == nil {
		return errNoVault
	}
	var buf bytes.Buffer
	if err := m.vault.GetBackup(name, &buf); err != nil {
		return fmt.Errorf("downloading %s: %w", name, err)
	}
	b, err := ParseBackup(&buf)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return m.Restore(ctx, b)
}

// ListArchives returns the archive names held by the vault.
func (m *BackupManager) ListArchives() ([]string, error) {
	if m.vault == nil {
		return nil, errNoVault
	}
	return m.vault.ListBackups()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
