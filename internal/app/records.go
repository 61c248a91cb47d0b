package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"hr-go/internal/hr"
)

// resolveRecord finds a record by id, falling back to its srNo (case-insensitive).
func (a *HRApp) resolveRecord(ctx context.Context, ref string) (*hr.Hindrance, error) {
	records := a.register.Records
	h, err := records.GetByID(ctx, ref)
	if err != nil || h != nil {
		return h, err
	}
	h, err = records.GetBySrNo(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("hindrance %s: %w", ref, hr.ErrNotFound)
	}
	return h, nil
}

// AddRecord creates a hindrance record from fields.
func (a *HRApp) AddRecord(ctx context.Context, fields hr.Fields) (*hr.Hindrance, error) {
	h, err := a.register.Records.Create(ctx, fields)
	a.track(err, true)
	return h, err
}

// UpdateRecord applies patch to the record identified by ref.
func (a *HRApp) UpdateRecord(ctx context.Context, ref string, patch hr.Fields) (*hr.Hindrance, error) {
	h, err := a.resolveRecord(ctx, ref)
	if err != nil {
		a.track(err, false)
		return nil, err
	}
	updated, err := a.register.Records.Update(ctx, h.ID, patch)
	a.track(err, true)
	return updated, err
}

// DeleteRecord removes the record identified by ref together with its attachments.
func (a *HRApp) DeleteRecord(ctx context.Context, ref string) error {
	h, err := a.resolveRecord(ctx, ref)
	if err != nil {
		a.track(err, false)
		return err
	}
	ok, err := a.register.Records.Delete(ctx, h.ID)
	if err == nil && !ok {
		err = fmt.Errorf("hindrance %s: %w", ref, hr.ErrNotFound)
	}
	a.track(err, true)
	return err
}

// GetRecord returns the record identified by ref with its derived status.
func (a *HRApp) GetRecord(ctx context.Context, ref string) (*hr.HindranceView, error) {
	h, err := a.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	return a.register.View(ctx, h.ID)
}

// ListRecords returns every record matching f, with derived status.
func (a *HRApp) ListRecords(ctx context.Context, f *hr.Filter) ([]*hr.HindranceView, error) {
	views, err := a.register.Views(ctx)
	if err != nil {
		return nil, err
	}
	return hr.FilterViews(views, f), nil
}

// RecordHistory returns the audit entries of the record identified by ref, most recent
// first. For a deleted record ref may be its id or the srNo it had when deleted.
func (a *HRApp) RecordHistory(ctx context.Context, ref string) ([]*hr.AuditEntry, error) {
	id := ref
	h, err := a.resolveRecord(ctx, ref)
	switch {
	case err == nil:
		id = h.ID
	case errors.Is(err, hr.ErrNotFound):
		deleted, err := a.register.Audit.DeletedHindranceID(ctx, strings.ToUpper(strings.TrimSpace(ref)))
		if err != nil {
			return nil, err
		}
		if deleted != "" {
			id = deleted
		}
	default:
		return nil, err
	}
	return a.register.Audit.ListForEntity(ctx, id)
}

// Stats aggregates the register for the dashboard.
func (a *HRApp) Stats(ctx context.Context) (*hr.Stats, error) {
	return a.register.Stats(ctx)
}

// ParseFields decodes a JSON object into a field bag. Numbers keep their JSON form so
// they decode into the record's numeric fields.
func ParseFields(data []byte) (hr.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields hr.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", hr.ErrInvalidFormat, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", hr.ErrInvalidFormat)
	}
	return fields, nil
}
