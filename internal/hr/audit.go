package hr

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// DefaultAuditCapacity is the number of entries kept in the audit ledger.
const DefaultAuditCapacity = 1000

// AuditLog is the bounded, most-recent-first ledger of record and user mutations.
// Entries are never edited; once the capacity is reached the oldest appended entry is
// evicted.
type AuditLog struct {
	kv       KeyValueStore
	clock    Clock
	idgen    IDGenerator
	capacity int

	mu sync.Mutex
}

// NewAuditLog creates an AuditLog over kv. A capacity below one selects DefaultAuditCapacity.
func NewAuditLog(kv KeyValueStore, clock Clock, idgen IDGenerator, capacity int) *AuditLog {
	if capacity < 1 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{
		kv:       kv,
		clock:    clock,
		idgen:    idgen,
		capacity: capacity,
	}
}

// Capacity returns the maximum number of retained entries.
func (a *AuditLog) Capacity() int {
	return a.capacity
}

// Append records a mutation performed by the actor carried in ctx.
// Either snapshot may be nil, which is stored as JSON null.
func (a *AuditLog) Append(ctx context.Context, action Action, entity Entity, entityID string, oldValue, newValue json.RawMessage) (*AuditEntry, error) {
	entry := &AuditEntry{
		ID:        a.idgen.New(),
		Timestamp: a.clock.Now(),
		User:      ActorFrom(ctx),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		OldValue:  nullIfEmpty(oldValue),
		NewValue:  nullIfEmpty(newValue),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	r := ringFromNewestFirst(a.capacity, entries)
	r.Push(entry)
	if err := saveJSON(ctx, a.kv, CollectionAuditLog, r.NewestFirst()); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListForEntity returns the entries about entityID, most recent first.
func (a *AuditLog) ListForEntity(ctx context.Context, entityID string) ([]*AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []*AuditEntry
	for _, e := range entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeletedHindranceID returns the id of the most recently deleted hindrance whose last
// snapshot carried srNo, or "" when the ledger holds no such delete.
func (a *AuditLog) DeletedHindranceID(ctx context.Context, srNo string) (string, error) {
	entries, err := a.Entries(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Action != ActionDelete || e.Entity != EntityHindrance || !e.HasOldValue() {
			continue
		}
		var old struct {
			SrNo string `json:"srNo"`
		}
		if json.Unmarshal(e.OldValue, &old) == nil && old.SrNo == srNo {
			return e.EntityID, nil
		}
	}
	return "", nil
}

// Entries returns the whole ledger, most recent first.
func (a *AuditLog) Entries(ctx context.Context) ([]*AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(ctx)
}

// Replace overwrites the ledger with entries (most recent first), keeping at most
// Capacity of the newest ones. Used by restore only.
func (a *AuditLog) Replace(ctx context.Context, entries []*AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replaceLocked(ctx, entries)
}

func (a *AuditLog) replaceLocked(ctx context.Context, entries []*AuditEntry) error {
	r := ringFromNewestFirst(a.capacity, entries)
	return saveJSON(ctx, a.kv, CollectionAuditLog, r.NewestFirst())
}

func (a *AuditLog) load(ctx context.Context) ([]*AuditEntry, error) {
	var entries []*AuditEntry
	if _, err := loadJSON(ctx, a.kv, CollectionAuditLog, &entries); err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return entries, nil
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// snapshot encodes v for use as an audit value.
func snapshot(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
