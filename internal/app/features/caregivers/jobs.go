package caregivers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/paging"
	"github.com/dalemusser/kinshealth/internal/app/system/reqparams"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeJobs handles GET /jobs/{userID}: the caregiver's job feed, nearest
// first when the caregiver has coordinates.
func (h *Handler) ServeJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByUserID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load caregiver")
		return
	}
	p := paging.Parse(r, paging.JobsLimit)
	page, err := jobmatch.FeedForCaregiver(ctx, h.DB, u.Location, p)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load jobs")
		return
	}
	h.Metrics.MatchQuery("job_feed")
	respond.OK(w, "", respond.M{"jobs": page.Items, "pagination": page.Meta})
}

// ServeJob handles GET /job/{jobId}. A malformed id is reported as not found.
func (h *Handler) ServeJob(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "jobId"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.NotFound("job not found"), "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	d, err := jobmatch.GetJobWithProvider(ctx, h.DB, id)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load job")
		return
	}
	respond.OK(w, "", respond.M{"job": d})
}

type favoriteRequest struct {
	UserID string `json:"userID" validate:"required"`
	JobID  string `json:"jobId" validate:"required,objectid"`
	Action string `json:"action" validate:"required,oneof=save unsave"`
}

// HandleFavorite handles POST /job/favorite.
func (h *Handler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := authSelf(r, req.UserID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if req.Action == "unsave" {
		if err := h.Users.RemoveFavoriteJob(ctx, req.UserID, req.JobID); err != nil {
			respond.Error(w, r, h.Log, classify(err), "failed to remove favorite")
			return
		}
		respond.OK(w, "job removed from favorites", nil)
		return
	}

	jobID, _ := primitive.ObjectIDFromHex(req.JobID)
	job, err := h.Jobs.Get(ctx, jobID)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load job")
		return
	}
	fav := models.FavoriteJob{JobID: req.JobID, Title: job.Title, SavedOn: nowUTC()}
	if err := h.Users.AddFavoriteJob(ctx, req.UserID, fav); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to save favorite")
		return
	}
	respond.OK(w, "job saved to favorites", respond.M{"favorite": fav})
}

// ServeFavoriteJobs handles GET /jobs/favorite/{userID}.
func (h *Handler) ServeFavoriteJobs(w http.ResponseWriter, r *http.Request) {
	h.serveJobRefs(w, r, func(u *models.User) []string {
		ids := make([]string, 0, len(u.FavoriteJobs))
		for _, f := range u.FavoriteJobs {
			ids = append(ids, f.JobID)
		}
		return ids
	})
}

// ServeAppliedJobs handles GET /jobs/applied-job/{userID}.
func (h *Handler) ServeAppliedJobs(w http.ResponseWriter, r *http.Request) {
	h.serveJobRefs(w, r, func(u *models.User) []string {
		ids := make([]string, 0, len(u.Applications))
		for _, a := range u.Applications {
			ids = append(ids, a.JobID)
		}
		return ids
	})
}

func (h *Handler) serveJobRefs(w http.ResponseWriter, r *http.Request, ids func(*models.User) []string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByUserID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load user")
		return
	}
	jobs, err := h.Jobs.ListByIDs(ctx, ids(u))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load jobs")
		return
	}
	respond.OK(w, "", respond.M{"jobs": jobs})
}

// hoursRange is the object form of minHours.
type hoursRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// parseHours accepts a number (exact minimum) or {min,max}.
func parseHours(raw json.RawMessage) (jobmatch.Hours, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return jobmatch.Hours{}, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return jobmatch.Exact(n), nil
	}
	var rg hoursRange
	if err := json.Unmarshal(raw, &rg); err != nil {
		return jobmatch.Hours{}, apperr.Validation("minHours must be a number or {min,max}")
	}
	return jobmatch.Hours{Min: rg.Min, Max: rg.Max}, nil
}

type filterRequest struct {
	Licenses []string        `json:"licenses"`
	Schedule []string        `json:"schedule"`
	MinHours json.RawMessage `json:"minHours"`
	Page     *int            `json:"page"`
	Limit    *int            `json:"limit"`
}

// HandleFilterJobs handles POST /jobs/filter: any-of licenses and schedule,
// newest first.
func (h *Handler) HandleFilterJobs(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	hours, err := parseHours(req.MinHours)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p := paging.FromBody(req.Page, req.Limit, paging.SearchLimit)
	page, err := jobmatch.FilterJobs(ctx, h.DB, jobmatch.JobFilter{
		Licenses: req.Licenses,
		Schedule: req.Schedule,
		Hours:    hours,
	}, p)
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to filter jobs")
		return
	}
	h.Metrics.MatchQuery("job_filter")
	respond.OK(w, "", respond.M{"jobs": page.Items, "pagination": page.Meta})
}

// ServeJobSearch handles GET /jobs-search. With lat and lng it ranks within
// the search radius using the flexible hours buffer.
func (h *Handler) ServeJobSearch(w http.ResponseWriter, r *http.Request) {
	var loc *models.GeoPoint
	lat, okLat := reqparams.Float(r, "lat")
	lng, okLng := reqparams.Float(r, "lng")
	if okLat && okLng {
		loc = geo.PointFromCoordinates(geo.Coordinates{Lat: lat, Lng: lng})
	}
	f := jobmatch.JobFilter{
		Licenses: reqparams.List(r, "licenses"),
		Schedule: reqparams.List(r, "schedule"),
	}
	if n, ok := reqparams.Int(r, "minHours"); ok {
		f.Hours = jobmatch.Flexible(n)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := jobmatch.SearchJobs(ctx, h.DB, loc, f, paging.Parse(r, paging.SearchLimit))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to search jobs")
		return
	}
	h.Metrics.MatchQuery("job_search")
	respond.OK(w, "", respond.M{"jobs": page.Items, "pagination": page.Meta})
}
