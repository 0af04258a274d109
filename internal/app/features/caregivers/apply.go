package caregivers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type applyRequest struct {
	JobID  string `json:"jobId" validate:"required,objectid"`
	UserID string `json:"userID" validate:"required"`
}

// HandleApply handles POST /job/apply.
//
// The job and the caregiver are loaded in parallel. The applicant snapshot,
// the caregiver's application record and the provider notification are then
// written together, inside a transaction when the deployment supports one.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := authSelf(r, req.UserID); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	jobID, _ := primitive.ObjectIDFromHex(req.JobID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		job       *models.Job
		caregiver *models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		job, err = h.Jobs.Get(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		caregiver, err = h.Users.GetByUserID(gctx, req.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		respond.Error(w, r, h.Log, classify(err), "failed to load application")
		return
	}
	if job.Draft {
		respond.Error(w, r, h.Log, apperr.NotFound("job not found"), "")
		return
	}
	if job.HasApplicant(caregiver.UserID) {
		respond.Error(w, r, h.Log, apperr.Conflict("you have already applied to this job"), "")
		return
	}

	now := nowUTC()
	applicant := models.SnapshotApplicant(*caregiver, now)
	record := models.ApplicationItem{
		JobID:      job.ID.Hex(),
		Title:      job.Title,
		Provider:   job.Provider,
		ProviderID: job.UserID,
		Email:      job.Email,
		Date:       now,
	}
	note := models.Notification{
		Type:       models.NotificationJobApplication,
		FromUserID: caregiver.UserID,
		ToUserID:   job.UserID,
		SenderType: models.RoleCaregiver,
		Message:    applicant.Name + " applied to " + job.Title,
		Metadata:   map[string]any{"jobId": job.ID.Hex(), "jobTitle": job.Title},
		CreatedAt:  now,
	}

	err := h.Tx.Run(ctx, func(tctx context.Context) error {
		if err := h.Jobs.AddApplicant(tctx, job.ID, applicant); err != nil {
			return err
		}
		if err := h.Users.AddApplication(tctx, caregiver.UserID, record); err != nil {
			return err
		}
		_, err := h.Notifications.InsertOnce(tctx, note)
		return err
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.Log.Warn("apply failed",
				zap.String("job_id", req.JobID),
				zap.String("user_id", req.UserID),
				zap.Error(err))
		}
		respond.Error(w, r, h.Log, classify(err), "failed to submit application")
		return
	}

	respond.Created(w, "application submitted", respond.M{"application": record})
}
