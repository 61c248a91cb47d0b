package hr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// AttachmentStore is a keyed blob store for attachments, secondary-indexed by the owning
// hindrance id. It lives in its own storage domain: it must be opened before use, and every
// call made before Open or after Close fails with ErrStoreUnavailable.
type AttachmentStore interface {
	Open(ctx context.Context) error

	// Put inserts or replaces the attachment with a.ID.
	Put(ctx context.Context, a *Attachment) error

	// Get returns the attachment with the given id, or nil, nil if unknown.
	Get(ctx context.Context, id string) (*Attachment, error)

	// ListByOwner returns the attachments of a hindrance in upload order.
	ListByOwner(ctx context.Context, hindranceID string) ([]*Attachment, error)

	// Delete removes the attachment and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	Close() error
}

// Attachments adds id assignment, upload stamping and the owner cascade on top of an
// AttachmentStore backend.
type Attachments struct {
	store  AttachmentStore
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

func NewAttachments(store AttachmentStore, logger Logger, clock Clock, idgen IDGenerator) *Attachments {
	return &Attachments{
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Save stores a, assigning an id when it has none and stamping the upload time.
// Saving with an existing id replaces that attachment.
func (a *Attachments) Save(ctx context.Context, att *Attachment) (*Attachment, error) {
	if att.HindranceID == "" {
		return nil, fmt.Errorf("%w: attachment has no owning hindrance", ErrInvalidFormat)
	}
	c := *att
	if c.ID == "" {
		c.ID = a.idgen.New()
	}
	c.UploadedAt = a.clock.Now()
	if err := a.store.Put(ctx, &c); err != nil {
		return nil, fmt.Errorf("saving attachment %s: %w", c.ID, err)
	}
	a.logger.Debug("attachment saved", "id", c.ID, "hindranceId", c.HindranceID, "name", c.Name)
	return &c, nil
}

func (a *Attachments) Get(ctx context.Context, id string) (*Attachment, error) {
	att, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting attachment %s: %w", id, err)
	}
	return att, nil
}

func (a *Attachments) ListByOwner(ctx context.Context, hindranceID string) ([]*Attachment, error) {
	atts, err := a.store.ListByOwner(ctx, hindranceID)
	if err != nil {
		return nil, fmt.Errorf("listing attachments of %s: %w", hindranceID, err)
	}
	return atts, nil
}

func (a *Attachments) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := a.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting attachment %s: %w", id, err)
	}
	return ok, nil
}

// DeleteAllForOwner deletes every attachment of a hindrance, one at a time.
// A failed delete is logged and skipped; the returned count covers the successful ones.
// An error is returned only when the owner's attachments cannot be listed.
func (a *Attachments) DeleteAllForOwner(ctx context.Context, hindranceID string) (int, error) {
	atts, err := a.ListByOwner(ctx, hindranceID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, att := range atts {
		ok, err := a.store.Delete(ctx, att.ID)
		if err != nil {
			a.logger.Warn("failed to delete attachment", "id", att.ID, "hindranceId", hindranceID, "error", err)
			continue
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// EncodeDataURI renders data as a base64 data URI of the given MIME type.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a data URI and returns its MIME type and payload.
// Both base64 and percent-encoded payloads are accepted.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrInvalidFormat)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URI has no payload", ErrInvalidFormat)
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return mimeType, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return mimeType, []byte(text), nil
}
