// internal/app/features/providers/routes.go
package providers

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the provider API. The payments feature registers its routes
// on the returned router as well.
func Routes(h *Handler, mgr *auth.Manager, search *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/caregivers/match/{userID}", h.ServeBestMatch)
	r.Get("/jobs/{jobId}/matching-caregivers", h.ServeJobCaregivers)
	r.Get("/caregivers/search", h.ServeSearch)
	r.Get("/caregivers/{caregiverID}", h.ServeCaregiver)
	r.With(ratelimit.Middleware(search, h.Log)).Get("/find-caregivers/filter", h.ServeNearby)
	r.Get("/posted-jobs/{userID}", h.ServePostedJobs)
	r.Get("/favorite-caregivers/{userID}", h.ServeFavoriteCaregivers)

	r.Group(func(pr chi.Router) {
		pr.Use(mgr.RequireRole(models.RoleProvider))
		pr.Post("/post-job", h.HandlePostJob)
		pr.Post("/settings/update/{userID}", h.HandleSettingsUpdate)
		pr.Delete("/job/delete/{id}", h.HandleDeleteJob)
		pr.Post("/set_favorites", h.HandleSetFavorites)
	})

	return r
}
