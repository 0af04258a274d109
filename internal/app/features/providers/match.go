package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"github.com/dalemusser/kinshealth/internal/app/system/reqparams"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeBestMatch handles GET /caregivers/match/{userID}.
func (h *Handler) ServeBestMatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	provider, err := h.Users.GetWithRole(ctx, chi.URLParam(r, "userID"), models.RoleProvider)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load provider")
		return
	}
	page, err := jobmatch.BestMatch(ctx, h.DB, *provider,
		reqparams.List(r, "alert_preferences"),
		paging.Parse(r, paging.SearchLimit))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to match caregivers")
		return
	}
	h.Metrics.MatchQuery("best_match")
	respond.OK(w, "", respond.M{"caregivers": page.Items, "pagination": page.Meta})
}

// ServeJobCaregivers handles GET /jobs/{jobId}/matching-caregivers.
func (h *Handler) ServeJobCaregivers(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "jobId"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.NotFound("job not found"), "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	job, err := h.Jobs.Get(ctx, id)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load job")
		return
	}
	cgs, err := jobmatch.CaregiversForJob(ctx, h.DB, *job)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to match caregivers")
		return
	}
	h.Metrics.MatchQuery("job_caregivers")
	respond.OK(w, "", respond.M{"caregivers": cgs})
}

// ServeSearch handles GET /caregivers/search.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q := r.URL.Query()
	page, err := jobmatch.SearchCaregivers(ctx, h.DB, jobmatch.CaregiverSearch{
		Name:             q.Get("name"),
		AlertPreferences: reqparams.List(r, "alert_preferences"),
		Licenses:         reqparams.List(r, "licenses"),
		Availability:     reqparams.List(r, "availability"),
		City:             q.Get("city"),
		Zipcode:          q.Get("zipcode"),
	}, paging.Parse(r, paging.SearchLimit))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to search caregivers")
		return
	}
	h.Metrics.MatchQuery("caregiver_search")
	respond.OK(w, "", respond.M{"caregivers": page.Items, "pagination": page.Meta})
}

// ServeCaregiver handles GET /caregivers/{caregiverID}.
func (h *Handler) ServeCaregiver(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cg, similar, err := jobmatch.CaregiverWithSimilar(ctx, h.DB, chi.URLParam(r, "caregiverID"))
	if err != nil {
		if errors.Is(err, jobmatch.ErrNotFound) {
			err = apperr.NotFound("caregiver not found")
		}
		respond.Error(w, r, h.Log, err, "failed to load caregiver")
		return
	}
	respond.OK(w, "", respond.M{"caregiver": cg, "similar": similar})
}

// ServeNearby handles GET /find-caregivers/filter. The search centre comes
// from the client IP; the locator falls back to a fixed coordinate.
func (h *Handler) ServeNearby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var c geo.Coordinates
	if h.IPLocator != nil {
		c = h.IPLocator.Locate(ctx, ratelimit.ClientIP(r))
	}
	page, err := jobmatch.NearbyCaregivers(ctx, h.DB, geo.PointFromCoordinates(c), jobmatch.CaregiverAttrs{
		Availability: reqparams.List(r, "availability"),
		Licenses:     reqparams.List(r, "licenses"),
	}, paging.Parse(r, paging.SearchLimit))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to find caregivers")
		return
	}
	h.Metrics.MatchQuery("nearby_caregivers")
	respond.OK(w, "", respond.M{
		"caregivers": page.Items,
		"pagination": page.Meta,
		"location":   c,
	})
}
