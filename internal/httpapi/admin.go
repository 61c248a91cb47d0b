package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"hr-go/internal/hr"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.app.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) exportRegister(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := h.app.ExportRegister(r.Context(), &buf, filterFromQuery(r.URL.Query()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendFile(w, xlsxContentType, name, buf.Bytes())
}

func (h *Handler) backup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	b, err := h.app.WriteSnapshot(r.Context(), &buf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendFile(w, "application/json", hr.ArchiveName(b.CreatedAt), buf.Bytes())
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	if err := h.app.RestoreFrom(r.Context(), r.Body); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSystemConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.SystemConfig(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) putSystemConfig(w http.ResponseWriter, r *http.Request) {
	var cfg hr.SystemConfig
	if err := decodeBody(r, &cfg); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.app.SaveSystemConfig(r.Context(), &cfg); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}

func (h *Handler) getProjectConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.ProjectConfig(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) putProjectConfig(w http.ResponseWriter, r *http.Request) {
	var cfg hr.ProjectConfig
	if err := decodeBody(r, &cfg); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.app.SaveProjectConfig(r.Context(), &cfg); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &cfg)
}

func sendFile(w http.ResponseWriter, contentType, name string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
