package httpapi

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"hr-go/internal/app"
	"hr-go/internal/hr"
)

// filterFromQuery builds a record filter from query parameters. status and phase may
// repeat or hold comma separated values.
func filterFromQuery(q url.Values) *hr.Filter {
	f := &hr.Filter{
		From:             q.Get("from"),
		To:               q.Get("to"),
		ResponsibleParty: q.Get("party"),
		Severity:         q.Get("severity"),
		Nature:           q.Get("nature"),
		WorkPhases:       splitValues(q["phase"]),
	}
	for _, s := range splitValues(q["status"]) {
		f.Statuses = append(f.Statuses, hr.Status(s))
	}
	return f
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func readFields(r *http.Request) (hr.Fields, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return app.ParseFields(data)
}

func (h *Handler) listHindrances(w http.ResponseWriter, r *http.Request) {
	views, err := h.app.ListRecords(r.Context(), filterFromQuery(r.URL.Query()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if views == nil {
		views = []*hr.HindranceView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createHindrance(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.app.AddRecord(r.Context(), fields)
	if err != nil {
		h.writeError(w, err)
		return
	}
	v, err := h.app.GetRecord(r.Context(), created.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) getHindrance(w http.ResponseWriter, r *http.Request) {
	v, err := h.app.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) updateHindrance(w http.ResponseWriter, r *http.Request) {
	patch, err := readFields(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	updated, err := h.app.UpdateRecord(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	v, err := h.app.GetRecord(r.Context(), updated.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) deleteHindrance(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) hindranceAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.RecordHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*hr.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
