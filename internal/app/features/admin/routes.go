// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin operations. There is no generic collection
// access; each action has its own route.
func Routes(h *Handler, mgr *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(mgr.RequireAdminKey)

	r.Get("/users/{userID}", h.ServeUser)
	r.Put("/users/{userID}/role", h.HandleSetRole)
	r.Put("/users/{userID}/complete", h.HandleSetComplete)
	r.Delete("/users/{userID}", h.HandleDeleteUser)

	r.Put("/jobs/{jobId}/draft", h.HandleSetDraft)
	r.Delete("/jobs/{jobId}", h.HandleDeleteJob)

	r.Delete("/threads/{threadId}", h.HandleDeleteThread)

	r.Get("/contacts/{email}", h.ServeContact)

	r.Get("/audit", h.ServeAudit)
	return r
}
