package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hr-go/internal/app"
	"hr-go/internal/hr"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.app.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]*app.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, app.Public(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var u hr.User
	if err := decodeBody(r, &u); err != nil {
		h.writeError(w, err)
		return
	}
	created, err := h.app.AddUser(r.Context(), &u)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app.Public(created))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.Public(u))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	patch, err := readFields(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	u, err := h.app.UpdateUser(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.Public(u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.app.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	ctx := hr.WithActor(r.Context(), req.Username)
	u, err := h.app.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app.Public(u))
}
