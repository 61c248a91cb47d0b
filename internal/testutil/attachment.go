package testutil

import (
	"context"
	"testing"

	"hr-go/internal/attachment"
)

// NewTestAttachmentStore creates an opened in-memory attachment store,
// closed when the test completes.
func NewTestAttachmentStore(t *testing.T) *attachment.MemoryStore {
	t.Helper()
	store := attachment.NewMemoryStore()
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("failed to open attachment store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
