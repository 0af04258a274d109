// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account API under /api/v1/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(h.Auth.RequireSignedIn)
		pr.Post("/create_user", h.HandleCreateUser)
	})
	r.Get("/user/{userID}", h.ServeUser)
	// Self or admin key, checked in the handler.
	r.Delete("/user/{userID}", h.HandleDeleteUser)
	return r
}
