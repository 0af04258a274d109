// internal/app/features/alerts/handler.go
package alerts

import (
	"context"
	"errors"
	"net/http"

	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/messaging"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/app/system/workers"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Queue is the part of the alert dispatcher the endpoints use.
type Queue interface {
	EnqueueJobAlert(jobID primitive.ObjectID) error
	EnqueueCaregiverAlert(caregiverID string) error
}

// Handler serves the email alert triggers and the SMS send endpoint.
type Handler struct {
	Jobs    *jobstore.Store
	Users   *userstore.Store
	Queue   Queue
	SMS     messaging.SMSSender
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler wires the alert endpoints.
func NewHandler(db *mongo.Database, q Queue, sms messaging.SMSSender, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Jobs:    jobstore.New(db),
		Users:   userstore.New(db),
		Queue:   q,
		SMS:     sms,
		Metrics: m,
		Log:     logger,
	}
}

var errNoQueue = apperr.Upstream("alert dispatcher is not running", nil)

func queueErr(err error) error {
	switch {
	case errors.Is(err, workers.ErrQueueFull):
		return apperr.RateLimited("alert queue is full, try again shortly")
	case errors.Is(err, workers.ErrStopped):
		return apperr.Upstream("alert dispatcher is shutting down", err)
	}
	return err
}

type jobAlertRequest struct {
	JobID string `json:"jobId" validate:"required,objectid"`
}

// HandleSendJobAlerts handles POST /email/send-job-alerts. The fan-out runs
// in the background; the response only confirms it was queued.
func (h *Handler) HandleSendJobAlerts(w http.ResponseWriter, r *http.Request) {
	var req jobAlertRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	id, _ := primitive.ObjectIDFromHex(req.JobID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	job, err := h.Jobs.Get(ctx, id)
	if errors.Is(err, jobstore.ErrNotFound) {
		err = apperr.NotFound("job not found")
	}
	if err != nil {
		respond.Error(w, r, h.Log, err, "failed to load job")
		return
	}
	if job.Draft {
		respond.Error(w, r, h.Log, apperr.Validation("draft jobs are not announced"), "")
		return
	}
	if h.Queue == nil {
		respond.Error(w, r, h.Log, errNoQueue, "")
		return
	}
	if err := h.Queue.EnqueueJobAlert(id); err != nil {
		respond.Error(w, r, h.Log, queueErr(err), "")
		return
	}
	respond.JSON(w, http.StatusAccepted, respond.M{"success": true, "message": "job alerts queued"})
}

type caregiverAlertRequest struct {
	CaregiverID string `json:"caregiverID" validate:"required"`
}

// HandleSendCaregiverAlert handles POST /email/send-new-caregivers-alert.
func (h *Handler) HandleSendCaregiverAlert(w http.ResponseWriter, r *http.Request) {
	var req caregiverAlertRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Users.GetWithRole(ctx, req.CaregiverID, models.RoleCaregiver); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			err = apperr.NotFound("caregiver not found")
		}
		respond.Error(w, r, h.Log, err, "failed to load caregiver")
		return
	}
	if h.Queue == nil {
		respond.Error(w, r, h.Log, errNoQueue, "")
		return
	}
	if err := h.Queue.EnqueueCaregiverAlert(req.CaregiverID); err != nil {
		respond.Error(w, r, h.Log, queueErr(err), "")
		return
	}
	respond.JSON(w, http.StatusAccepted, respond.M{"success": true, "message": "caregiver alert queued"})
}

type smsRequest struct {
	To   string `json:"to" validate:"required,phone_e164"`
	Body string `json:"body" validate:"required,max=1600"`
}

// HandleSendSMS handles POST /twilio/sms/send.
func (h *Handler) HandleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if err := inputval.Validate(req).Err(); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.SMS.SendSMS(ctx, req.To, req.Body)
	if err != nil {
		h.Metrics.AlertSent(metrics.ChannelSMS, metrics.OutcomeFailed)
		switch {
		case errors.Is(err, messaging.ErrBadPhone):
			err = apperr.Validation("to must be an E.164 phone number")
		case errors.Is(err, messaging.ErrNotConfigured):
			err = apperr.Upstream("sms is not configured", err)
		default:
			err = apperr.Upstream("sms send failed", err)
		}
		respond.Error(w, r, h.Log, err, "")
		return
	}
	h.Metrics.AlertSent(metrics.ChannelSMS, metrics.OutcomeSent)
	respond.OK(w, "message sent", respond.M{"sms": res})
}
