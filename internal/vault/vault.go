package vault

import (
	"fmt"
	"strings"

	"hr-go/internal/hr"
)

// backupsDir is the folder (or key prefix) under which every vault stores archives.
const backupsDir = "backups"

// checkName rejects archive names that could escape the backups folder.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: invalid archive name %q", hr.ErrInvalidFormat, name)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("archive %s: %w", name, hr.ErrNotFound)
}
