// internal/app/features/caregivers/routes.go
package caregivers

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the caregiver API. Typically:
// r.Mount("/api/v1/caregivers", caregivers.Routes(h, mgr, limiter))
//
// Reads are public. Writes require a signed-in caregiver acting on their own
// account; the per-handler self check enforces the latter.
func Routes(h *Handler, mgr *auth.Manager, search *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()

	r.Get("/jobs/{userID}", h.ServeJobs)
	r.Get("/job/{jobId}", h.ServeJob)
	r.Get("/jobs/favorite/{userID}", h.ServeFavoriteJobs)
	r.Get("/jobs/applied-job/{userID}", h.ServeAppliedJobs)
	r.Post("/jobs/filter", h.HandleFilterJobs)
	r.With(ratelimit.Middleware(search, h.Log)).Get("/jobs-search", h.ServeJobSearch)
	r.Get("/get-provider/{providerId}", h.ServeProvider)

	r.Group(func(pr chi.Router) {
		pr.Use(mgr.RequireSignedIn)
		pr.Get("/notifications/{userId}", h.ServeNotifications)
		pr.Post("/notifications/{notificationId}", h.HandleSetRead)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(mgr.RequireRole(models.RoleCaregiver))
		pr.Post("/job/apply", h.HandleApply)
		pr.Post("/job/favorite", h.HandleFavorite)
		pr.Post("/resume/update/{userID}", h.HandleResumeUpdate)
		pr.Post("/save-recommendation", h.HandleSaveRecommendation)
	})

	return r
}
