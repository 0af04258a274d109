// internal/app/features/providers/handler.go
package providers

import (
	"errors"
	"net/http"

	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AlertQueue accepts caregiver alert fan-outs for newly published jobs.
type AlertQueue interface {
	EnqueueJobAlert(jobID primitive.ObjectID) error
}

// Handler owns the provider-facing endpoints.
type Handler struct {
	DB        *mongo.Database
	Users     *userstore.Store
	Jobs      *jobstore.Store
	Geocoder  geo.Geocoder
	IPLocator *geo.IPLocator
	Alerts    AlertQueue
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

// NewHandler wires the stores over db. alerts may be nil, in which case
// publishing a job sends nothing.
func NewHandler(db *mongo.Database, gc geo.Geocoder, loc *geo.IPLocator, alerts AlertQueue, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		DB:        db,
		Users:     userstore.New(db),
		Jobs:      jobstore.New(db),
		Geocoder:  gc,
		IPLocator: loc,
		Alerts:    alerts,
		Metrics:   m,
		Log:       logger,
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, jobstore.ErrNotFound), errors.Is(err, jobmatch.ErrNotFound):
		return apperr.NotFound("job not found")
	case errors.Is(err, jobstore.ErrForbidden):
		return apperr.Forbidden("you do not own this job")
	}
	return err
}

func decodeValid(r *http.Request, dst any) error {
	if err := respond.Decode(r, dst); err != nil {
		return err
	}
	return inputval.Validate(dst).Err()
}

// caller returns the signed-in user. Routes guard this, so a miss is a
// wiring bug reported as 401.
func caller(r *http.Request) (*auth.User, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return nil, apperr.Unauthorized("sign in required")
	}
	return u, nil
}
