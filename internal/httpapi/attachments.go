package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hr-go/internal/app"
	"hr-go/internal/hr"
)

// multipartOverhead is the room left for form headers on top of the file size limit.
const multipartOverhead = 1 << 20

type attachmentMeta struct {
	ID          string `json:"id"`
	HindranceID string `json:"hindranceId"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	UploadedAt  string `json:"uploadedAt"`
}

func metaOf(a *hr.Attachment) attachmentMeta {
	return attachmentMeta{
		ID:          a.ID,
		HindranceID: a.HindranceID,
		Name:        a.Name,
		MimeType:    a.MimeType,
		UploadedAt:  a.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.ListAttachments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]attachmentMeta, 0, len(list))
	for _, a := range list {
		out = append(out, metaOf(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	limit := h.app.MaxAttachmentSize()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit + multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.writeError(w, fmt.Errorf("upload: %w", app.ErrAttachmentTooLarge))
			return
		}
		h.writeError(w, fmt.Errorf("%w: %v", hr.ErrInvalidFormat, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", hr.ErrInvalidFormat, err))
		return
	}
	defer file.Close()

	// read one byte past the limit so oversized files are still rejected by the app
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.writeError(w, err)
		return
	}

	declared := header.Header.Get("Content-Type")
	if declared == "application/octet-stream" {
		declared = ""
	}
	att, err := h.app.AddAttachment(r.Context(), chi.URLParam(r, "id"), header.Filename, data, declared)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, metaOf(att))
}

func (h *Handler) getAttachment(w http.ResponseWriter, r *http.Request) {
	att, data, err := h.app.GetAttachment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendFile(w, att.MimeType, att.Name, data)
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteAttachment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
