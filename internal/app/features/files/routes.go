// internal/app/features/files/routes.go
package files

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/v1/files.
func Routes(h *Handler, mgr *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(mgr.RequireSignedIn)
	r.Post("/upload", h.HandleUpload)
	r.Delete("/", h.HandleDelete)
	return r
}
