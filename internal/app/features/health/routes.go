// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes serves the probe at the mount point. It is mounted at both / and /health.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
