package providers

import (
	"context"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type postJobRequest struct {
	ID           string   `json:"_id" validate:"omitempty,objectid"`
	UserID       string   `json:"userID" validate:"required"`
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Provider     string   `json:"provider"`
	Email        string   `json:"email" validate:"omitempty,email"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Zipcode      string   `json:"zipcode"`
	Licenses     []string `json:"licenses"`
	Schedule     string   `json:"schedule"`
	MinHours     int      `json:"minHours" validate:"gte=0"`
	Compensation string   `json:"compensation"`
	Mobility     string   `json:"mobility" validate:"omitempty,oneof=car_needed no_car_needed"`
	Draft        bool     `json:"draft"`
}

// HandlePostJob handles POST /post-job: create or update one of the
// caller's jobs. Publishing a job queues a caregiver alert.
func (h *Handler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	var req postJobRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	u, err := caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if u.ID != req.UserID {
		respond.Error(w, r, h.Log, apperr.Forbidden("you can only post jobs for your own account"), "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	j := models.Job{
		UserID:       req.UserID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Provider:     req.Provider,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Address:      req.Address,
		City:         req.City,
		Zipcode:      req.Zipcode,
		Licenses:     req.Licenses,
		Schedule:     req.Schedule,
		MinHours:     req.MinHours,
		Compensation: req.Compensation,
		Mobility:     req.Mobility,
		Draft:        req.Draft,
	}
	if req.ID != "" {
		j.ID, _ = primitive.ObjectIDFromHex(req.ID)
	}
	if j.Email == "" {
		j.Email = strings.ToLower(u.Email)
	}
	if j.Email != "" {
		j.Hash = userstore.EmailHash(j.Email)
	}
	if geo.ValidZipcode(j.Zipcode) {
		j.Location = geo.Point(ctx, h.Geocoder, j.Zipcode, j.City, h.Log)
	}

	res, err := h.Jobs.Upsert(ctx, j)
	if err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to save job")
		return
	}

	if res.Published && h.Alerts != nil {
		if err := h.Alerts.EnqueueJobAlert(res.Job.ID); err != nil {
			// The job is saved either way; the alert can be re-sent from
			// the email endpoint.
			h.Log.Warn("job alert not queued", zap.String("job_id", res.Job.ID.Hex()), zap.Error(err))
		}
	}

	if res.Inserted {
		respond.Created(w, "job created", respond.M{"job": res.Job, "published": res.Published})
		return
	}
	respond.OK(w, "job updated", respond.M{"job": res.Job, "published": res.Published})
}

// ServePostedJobs handles GET /posted-jobs/{userID}.
func (h *Handler) ServePostedJobs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	jobs, err := h.Jobs.ListByOwner(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load jobs")
		return
	}
	respond.OK(w, "", respond.M{"jobs": jobs})
}

// HandleDeleteJob handles DELETE /job/delete/{id}. Only the owner may delete.
func (h *Handler) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.NotFound("job not found"), "")
		return
	}
	u, err := caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Jobs.DeleteOwned(ctx, id, u.ID); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to delete job")
		return
	}
	h.Log.Info("job deleted", zap.String("job_id", id.Hex()), zap.String("user_id", u.ID))
	respond.OK(w, "job deleted", nil)
}
