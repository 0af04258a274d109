// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the notification API. Every route needs a signed-in user.
func Routes(h *Handler, mgr *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(mgr.RequireSignedIn)
	r.Post("/send", h.HandleSend)
	r.Get("/fetch", h.ServeFetch)
	r.Post("/mark-as-read", h.HandleMarkAsRead)
	return r
}
