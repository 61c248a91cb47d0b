// Package httpapi serves the register over HTTP for browser and tool clients.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"hr-go/internal/app"
)

// ActorHeader names the request header carrying the acting username.
const ActorHeader = "X-Actor"

// Handler holds the app the routes operate on.
type Handler struct {
	app *app.HRApp
}

// NewRouter constructs the HTTP handler for the register API.
//
// The router does no authentication. The actor comes from the X-Actor header as sent,
// so the handler must only be reachable through a proxy that authenticates the caller
// and sets X-Actor itself; restore, user and settings routes are otherwise open to anyone
// who can reach it.
//
// Routes:
//
//	GET    /hindrances                  list with derived status (filter via query)
//	POST   /hindrances                  create
//	GET    /hindrances/{id}             show (id or srNo)
//	PATCH  /hindrances/{id}             partial update
//	DELETE /hindrances/{id}             delete with attachments
//	GET    /hindrances/{id}/audit       audit entries, most recent first
//	GET    /hindrances/{id}/attachments list attachments
//	POST   /hindrances/{id}/attachments multipart upload (field "file")
//	GET    /attachments/{id}            download
//	DELETE /attachments/{id}            delete
//	GET    /users, POST /users, GET|PATCH|DELETE /users/{id}
//	POST   /login
//	GET    /dashboard
//	GET    /export.xlsx
//	GET    /backup, POST /restore
//	GET|PUT /settings/system, /settings/project
func NewRouter(a *app.HRApp) http.Handler {
	h := &Handler{app: a}
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(withRequestLogging(a.Logger()))
	r.Use(withActor)

	r.Route("/hindrances", func(r chi.Router) {
		r.Get("/", h.listHindrances)
		r.Post("/", h.createHindrance)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getHindrance)
			r.Patch("/", h.updateHindrance)
			r.Delete("/", h.deleteHindrance)
			r.Get("/audit", h.hindranceAudit)
			r.Get("/attachments", h.listAttachments)
			r.Post("/attachments", h.uploadAttachment)
		})
	})

	r.Route("/attachments/{id}", func(r chi.Router) {
		r.Get("/", h.getAttachment)
		r.Delete("/", h.deleteAttachment)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/{id}", h.getUser)
		r.Patch("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
	})
	r.Post("/login", h.login)

	r.Get("/dashboard", h.dashboard)
	r.Get("/export.xlsx", h.exportRegister)
	r.Get("/backup", h.backup)
	r.Post("/restore", h.restore)

	r.Route("/settings", func(r chi.Router) {
		r.Get("/system", h.getSystemConfig)
		r.Put("/system", h.putSystemConfig)
		r.Get("/project", h.getProjectConfig)
		r.Put("/project", h.putProjectConfig)
	})

	return r
}
