package kvstore

import (
	"context"
	"sync"

	"hr-go/internal/hr"
)

var _ hr.KeyValueStore = (*MemoryStore)(nil)

// MemoryStore keeps collections in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Set(_ context.Context, collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, collection)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
