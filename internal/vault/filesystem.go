package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hr-go/internal/hr"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// Archives are stored as plain files:
//
//	<root>/
//	  backups/
//	    hr-backup-<timestamp>.json
type FileSystemVault struct {
	name       string
	root       string
	backupsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	dir := filepath.Join(root, backupsDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &FileSystemVault{
		name:       name,
		root:       root,
		backupsDir: dir,
	}, nil
}

// PutBackup stores an archive, replacing any archive of the same name.
func (v *FileSystemVault) PutBackup(name string, r io.Reader, size int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	return v.writeFile(filepath.Join(v.backupsDir, name), r, size)
}

// GetBackup writes the named archive to w.
func (v *FileSystemVault) GetBackup(name string, w io.Writer) error {
	if err := checkName(name); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(v.backupsDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return notFound(name)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}

// ListBackups returns the archive names in ascending order. Temp files of interrupted
// writes are skipped.
func (v *FileSystemVault) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(v.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("reading backups directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".tmp-") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.backupsDir)
	if err != nil {
		return fmt.Errorf("vault directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault path is not a directory: %s", v.backupsDir)
	}
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ hr.Vault = (*FileSystemVault)(nil)
