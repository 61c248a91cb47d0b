package app

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"hr-go/internal/config"
	"hr-go/internal/hr"
)

var (
	ErrAttachmentTooLarge = errors.New("attachment exceeds the size limit")
	ErrAttachmentType     = errors.New("attachment type not allowed")
)

// sniffable are the types whose content signature must agree with the declared type.
var sniffable = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// MaxAttachmentSize is the upload limit in bytes.
func (a *HRApp) MaxAttachmentSize() int64 {
	if a.cfg.Attachments.MaxSize > 0 {
		return a.cfg.Attachments.MaxSize
	}
	return config.DefaultAttachmentMaxSize
}

func (a *HRApp) allowedTypes() []string {
	if len(a.cfg.Attachments.AllowedTypes) > 0 {
		return a.cfg.Attachments.AllowedTypes
	}
	return config.DefaultAllowedTypes
}

// DetectMIMEType resolves the media type of an upload: the declared type if any, else
// the file extension, else the content signature. Parameters are dropped.
func DetectMIMEType(name, declared string, data []byte) string {
	t := declared
	if t == "" {
		t = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	if t == "" {
		t = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}

// AddAttachment validates and stores a file for the record identified by ref.
func (a *HRApp) AddAttachment(ctx context.Context, ref, name string, data []byte, declaredType string) (*hr.Attachment, error) {
	att, err := a.addAttachment(ctx, ref, name, data, declaredType)
	a.track(err, true)
	return att, err
}

func (a *HRApp) addAttachment(ctx context.Context, ref, name string, data []byte, declaredType string) (*hr.Attachment, error) {
	if limit := a.MaxAttachmentSize(); int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", name, len(data), limit, ErrAttachmentTooLarge)
	}
	mimeType := DetectMIMEType(name, declaredType, data)
	if !slices.Contains(a.allowedTypes(), mimeType) {
		return nil, fmt.Errorf("%s (%s): %w", name, mimeType, ErrAttachmentType)
	}
	if sniffable[mimeType] {
		if sniffed := DetectMIMEType("", http.DetectContentType(data), nil); sniffed != mimeType {
			return nil, fmt.Errorf("%s declared %s but contains %s: %w", name, mimeType, sniffed, ErrAttachmentType)
		}
	}

	h, err := a.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	return a.register.Attachments.Save(ctx, &hr.Attachment{
		HindranceID: h.ID,
		Name:        filepath.Base(name),
		MimeType:    mimeType,
		Data:        hr.EncodeDataURI(mimeType, data),
	})
}

// ListAttachments returns the attachments of the record identified by ref.
func (a *HRApp) ListAttachments(ctx context.Context, ref string) ([]*hr.Attachment, error) {
	h, err := a.resolveRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	return a.register.Attachments.ListByOwner(ctx, h.ID)
}

// GetAttachment returns an attachment and its decoded payload.
func (a *HRApp) GetAttachment(ctx context.Context, id string) (*hr.Attachment, []byte, error) {
	att, err := a.register.Attachments.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if att == nil {
		return nil, nil, fmt.Errorf("attachment %s: %w", id, hr.ErrNotFound)
	}
	_, data, err := hr.DecodeDataURI(att.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding attachment %s: %w", id, err)
	}
	return att, data, nil
}

// DeleteAttachment removes one attachment.
func (a *HRApp) DeleteAttachment(ctx context.Context, id string) error {
	ok, err := a.register.Attachments.Delete(ctx, id)
	if err == nil && !ok {
		err = fmt.Errorf("attachment %s: %w", id, hr.ErrNotFound)
	}
	a.track(err, true)
	return err
}
