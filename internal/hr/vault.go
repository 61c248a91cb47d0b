package hr

import "io"

// Vault stores backup archives outside the register's own storage.
// Operations stream through io.Reader/io.Writer so archives are never buffered twice.
type Vault interface {
	// PutBackup stores an archive under name, replacing any archive of the same name.
	// size is the number of bytes that will be read from r.
	PutBackup(name string, r io.Reader, size int64) error

	// GetBackup writes the archive stored under name to w.
	GetBackup(name string, w io.Writer) error

	// ListBackups returns the stored archive names in ascending order.
	ListBackups() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
