package hr

import (
	"context"
	"encoding/json"
	"fmt"
)

// KeyValueStore is the substrate for every collection of the register.
// Each collection is stored as one JSON document and replaced as a whole on write.
type KeyValueStore interface {
	// Get returns the stored document for collection, or nil, nil if it has never been set.
	Get(ctx context.Context, collection string) ([]byte, error)

	// Set replaces the document for collection.
	Set(ctx context.Context, collection string, data []byte) error

	// Remove deletes the document for collection. Removing an absent collection is not an error.
	Remove(ctx context.Context, collection string) error

	// Close releases the underlying connection.
	Close() error
}

// Collection names. They match the keys used by the browser edition so exported data
// lines up.
const (
	CollectionHindrances    = "hr_hindrances"
	CollectionUsers         = "hr_users"
	CollectionProjectConfig = "hr_project_config"
	CollectionSystemConfig  = "hr_system_config"
	CollectionAuditLog      = "hr_audit_log"
	CollectionLastBackup    = "hr_last_backup"
)

// loadJSON decodes collection into v. It reports false when the collection is absent.
func loadJSON(ctx context.Context, kv KeyValueStore, collection string, v any) (bool, error) {
	data, err := kv.Get(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", collection, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", collection, err)
	}
	return true, nil
}

// saveJSON writes v as the whole content of collection.
// Store errors are wrapped with ErrWriteFailure.
func saveJSON(ctx context.Context, kv KeyValueStore, collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	if err := kv.Set(ctx, collection, data); err != nil {
		return fmt.Errorf("writing %s: %w: %w", collection, ErrWriteFailure, err)
	}
	return nil
}
