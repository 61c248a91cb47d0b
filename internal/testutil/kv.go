package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hr-go/internal/hr"
	"hr-go/internal/kvstore"
)

// NewTestKV creates an empty in-memory KeyValueStore, closed when the test completes.
func NewTestKV(t *testing.T) *kvstore.MemoryStore {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	return kv
}

// ErrInjected is returned by FailingKV for writes that were armed to fail.
var ErrInjected = errors.New("injected write failure")

// FailingKV wraps a KeyValueStore and fails writes to selected collections.
type FailingKV struct {
	hr.KeyValueStore

	mu    sync.Mutex
	fail  map[string]bool
	all   bool
	reads int
}

var _ hr.KeyValueStore = (*FailingKV)(nil)

func NewFailingKV(inner hr.KeyValueStore) *FailingKV {
	return &FailingKV{KeyValueStore: inner, fail: map[string]bool{}}
}

// FailWrites makes Set and Remove fail for the given collections, or for every
// collection when none are given.
func (f *FailingKV) FailWrites(collections ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(collections) == 0 {
		f.all = true
		return
	}
	for _, c := range collections {
		f.fail[c] = true
	}
}

// Heal clears every armed failure.
func (f *FailingKV) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all = false
	f.fail = map[string]bool{}
}

// Reads returns the number of Get calls seen.
func (f *FailingKV) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *FailingKV) failing(collection string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all || f.fail[collection]
}

func (f *FailingKV) Get(ctx context.Context, collection string) ([]byte, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	return f.KeyValueStore.Get(ctx, collection)
}

func (f *FailingKV) Set(ctx context.Context, collection string, data []byte) error {
	if f.failing(collection) {
		return ErrInjected
	}
	return f.KeyValueStore.Set(ctx, collection, data)
}

func (f *FailingKV) Remove(ctx context.Context, collection string) error {
	if f.failing(collection) {
		return ErrInjected
	}
	return f.KeyValueStore.Remove(ctx, collection)
}
