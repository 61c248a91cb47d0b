package attachment

import (
	"fmt"
	"os"
	"path/filepath"

	"hr-go/internal/config"
	"hr-go/internal/hr"
)

// AttachmentsDBName is the SQLite file holding attachments.
const AttachmentsDBName = "attachments.db"

// NewFromConfig creates an AttachmentStore implementation based on the attachments config
// type. The returned store is not open yet.
func NewFromConfig(cfg config.AttachmentsConfig) (hr.AttachmentStore, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite attachments")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating attachments dir: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, AttachmentsDBName)), nil
	default:
		return nil, fmt.Errorf("unknown attachments type: %s", cfg.Type)
	}
}
