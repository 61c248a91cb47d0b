package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"hr-go/internal/app"
	"hr-go/internal/hr"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps register errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hr.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, hr.ErrDuplicateUsername):
		return http.StatusConflict
	case errors.Is(err, hr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, hr.ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, app.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, app.ErrAttachmentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, hr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.app.Logger().Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeBody decodes a JSON request body into v. Failures are ErrInvalidFormat.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", hr.ErrInvalidFormat, err)
	}
	return nil
}
