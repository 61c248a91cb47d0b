package hr

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// systemKeys are assigned by the store and ignored when supplied by a caller.
var systemKeys = map[string]bool{
	"id": true, "srNo": true, "createdAt": true, "createdBy": true, "updatedAt": true, "updatedBy": true,
}

// RecordStore is the audited CRUD layer over hindrance records and users.
// Every mutation is a whole-collection read-modify-write serialized per collection,
// followed by an audit entry.
type RecordStore struct {
	kv          KeyValueStore
	audit       *AuditLog
	attachments *Attachments
	logger      Logger
	clock       Clock
	idgen       IDGenerator

	hindranceMu sync.Mutex
	userMu      sync.Mutex
}

// NewRecordStore creates a RecordStore. attachments may be nil, in which case deletes do
// not cascade.
func NewRecordStore(kv KeyValueStore, audit *AuditLog, attachments *Attachments, logger Logger, clock Clock, idgen IDGenerator) *RecordStore {
	return &RecordStore{
		kv:          kv,
		audit:       audit,
		attachments: attachments,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
	}
}

// Create stores a new hindrance built from fields and returns it.
// The store assigns id, srNo and the creation stamps; caller values for those keys are ignored.
// A missing status defaults to Active.
func (s *RecordStore) Create(ctx context.Context, fields Fields) (*Hindrance, error) {
	h, err := hindranceFromFields(fields)
	if err != nil {
		return nil, err
	}

	s.hindranceMu.Lock()
	defer s.hindranceMu.Unlock()

	list, err := s.loadHindrances(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	h.ID = s.idgen.New()
	h.SrNo = NextSrNo(list)
	h.CreatedAt = now
	h.UpdatedAt = now
	h.CreatedBy = ActorFrom(ctx)
	h.UpdatedBy = ""
	if h.Status == "" {
		h.Status = StatusActive
	}

	if err := saveJSON(ctx, s.kv, CollectionHindrances, append(list, h)); err != nil {
		return nil, fmt.Errorf("creating hindrance: %w", err)
	}
	s.record(ctx, ActionCreate, EntityHindrance, h.ID, nil, snapshot(h))

	s.logger.Info("hindrance created", "id", h.ID, "srNo", h.SrNo)
	return h.Clone(), nil
}

// Update applies patch to the hindrance with the given id. Keys present in patch replace
// the stored value (a nil value clears a nullable field); absent keys are untouched.
// Returns ErrNotFound if no such record exists.
func (s *RecordStore) Update(ctx context.Context, id string, patch Fields) (*Hindrance, error) {
	s.hindranceMu.Lock()
	defer s.hindranceMu.Unlock()

	list, err := s.loadHindrances(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfHindrance(list, id)
	if idx < 0 {
		return nil, fmt.Errorf("hindrance %s: %w", id, ErrNotFound)
	}

	old := list[idx].Clone()
	base, err := json.Marshal(old)
	if err != nil {
		return nil, fmt.Errorf("encoding hindrance %s: %w", id, err)
	}
	merged, err := mergePatch(base, patch, systemKeys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	updated := &Hindrance{}
	if err := decodeInto(merged, updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.clock.Now()
	updated.UpdatedBy = ActorFrom(ctx)
	list[idx] = updated

	if err := saveJSON(ctx, s.kv, CollectionHindrances, list); err != nil {
		return nil, fmt.Errorf("updating hindrance %s: %w", id, err)
	}
	s.record(ctx, ActionUpdate, EntityHindrance, id, snapshot(old), snapshot(updated))

	s.logger.Info("hindrance updated", "id", id)
	return updated.Clone(), nil
}

// Delete removes the hindrance with the given id and then deletes its attachments.
// It reports false, and records nothing, when no such record exists.
//
// The attachment cascade runs after the record delete is committed and is best-effort:
// attachments that fail to delete are logged and left behind.
func (s *RecordStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.deleteHindrance(ctx, id)
	if err != nil || removed == nil {
		return false, err
	}

	if s.attachments != nil {
		n, err := s.attachments.DeleteAllForOwner(ctx, id)
		if err != nil {
			s.logger.Warn("attachment cascade failed", "hindranceId", id, "error", err)
		} else if n > 0 {
			s.logger.Debug("attachments deleted", "hindranceId", id, "count", n)
		}
	}
	return true, nil
}

func (s *RecordStore) deleteHindrance(ctx context.Context, id string) (*Hindrance, error) {
	s.hindranceMu.Lock()
	defer s.hindranceMu.Unlock()

	list, err := s.loadHindrances(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfHindrance(list, id)
	if idx < 0 {
		return nil, nil
	}
	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)

	if err := saveJSON(ctx, s.kv, CollectionHindrances, list); err != nil {
		return nil, fmt.Errorf("deleting hindrance %s: %w", id, err)
	}
	s.record(ctx, ActionDelete, EntityHindrance, id, snapshot(removed), nil)

	s.logger.Info("hindrance deleted", "id", id, "srNo", removed.SrNo)
	return removed, nil
}

// GetByID returns the hindrance with the given id, or nil if none exists.
func (s *RecordStore) GetByID(ctx context.Context, id string) (*Hindrance, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOfHindrance(list, id); idx >= 0 {
		return list[idx], nil
	}
	return nil, nil
}

// GetBySrNo returns the hindrance with the given sequence label, or nil if none exists.
func (s *RecordStore) GetBySrNo(ctx context.Context, srNo string) (*Hindrance, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range list {
		if h.SrNo == srNo {
			return h, nil
		}
	}
	return nil, nil
}

// List returns every hindrance in insertion order. The returned records are copies.
func (s *RecordStore) List(ctx context.Context) ([]*Hindrance, error) {
	s.hindranceMu.Lock()
	defer s.hindranceMu.Unlock()
	return s.loadHindrances(ctx)
}

// loadHindrances reads the collection. Callers must hold hindranceMu.
func (s *RecordStore) loadHindrances(ctx context.Context) ([]*Hindrance, error) {
	var list []*Hindrance
	if _, err := loadJSON(ctx, s.kv, CollectionHindrances, &list); err != nil {
		return nil, fmt.Errorf("loading hindrances: %w", err)
	}
	return list, nil
}

// record appends an audit entry. The record write has already been committed at this
// point, so a failing ledger write is logged rather than returned.
func (s *RecordStore) record(ctx context.Context, action Action, entity Entity, id string, oldValue, newValue json.RawMessage) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(ctx, action, entity, id, oldValue, newValue); err != nil {
		s.logger.Error("audit append failed", "action", string(action), "entity", string(entity), "id", id, "error", err)
	}
}

func hindranceFromFields(fields Fields) (*Hindrance, error) {
	clean := make(Fields, len(fields))
	for k, v := range fields {
		if !systemKeys[k] {
			clean[k] = v
		}
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	h := &Hindrance{}
	if err := decodeInto(data, h); err != nil {
		return nil, err
	}
	return h, nil
}

func indexOfHindrance(list []*Hindrance, id string) int {
	for i, h := range list {
		if h.ID == id {
			return i
		}
	}
	return -1
}
