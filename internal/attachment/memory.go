package attachment

import (
	"context"
	"sync"

	"hr-go/internal/hr"
)

var _ hr.AttachmentStore = (*MemoryStore)(nil)

// MemoryStore keeps attachments in process memory. It still honours the Open/Close
// lifecycle so callers behave the same against every backend.
type MemoryStore struct {
	mu    sync.RWMutex
	open  bool
	items map[string]*hr.Attachment
	order []string // ids in first-insert order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Open(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]*hr.Attachment)
	}
	m.open = true
	return nil
}

func (m *MemoryStore) Put(_ context.Context, a *hr.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return hr.ErrStoreUnavailable
	}
	if _, exists := m.items[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	c := *a
	m.items[a.ID] = &c
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*hr.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.open {
		return nil, hr.ErrStoreUnavailable
	}
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, hindranceID string) ([]*hr.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.open {
		return nil, hr.ErrStoreUnavailable
	}
	var out []*hr.Attachment
	for _, id := range m.order {
		if a := m.items[id]; a != nil && a.HindranceID == hindranceID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return false, hr.ErrStoreUnavailable
	}
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}
