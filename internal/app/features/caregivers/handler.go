// internal/app/features/caregivers/handler.go
package caregivers

import (
	"errors"
	"net/http"
	"time"

	jobstore "github.com/dalemusser/kinshealth/internal/app/store/jobs"
	notificationstore "github.com/dalemusser/kinshealth/internal/app/store/notifications"
	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the caregiver-facing endpoints.
type Handler struct {
	DB            *mongo.Database
	Users         *userstore.Store
	Jobs          *jobstore.Store
	Notifications *notificationstore.Store
	Tx            *txn.Runner
	Geocoder      geo.Geocoder
	Metrics       *metrics.Metrics
	Log           *zap.Logger
}

// NewHandler wires the stores over db.
func NewHandler(db *mongo.Database, tx *txn.Runner, gc geo.Geocoder, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		DB:            db,
		Users:         userstore.New(db),
		Jobs:          jobstore.New(db),
		Notifications: notificationstore.New(db),
		Tx:            tx,
		Geocoder:      gc,
		Metrics:       m,
		Log:           logger,
	}
}

// classify maps store sentinels to client-facing errors.
func classify(err error) error {
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, jobstore.ErrNotFound), errors.Is(err, jobmatch.ErrNotFound):
		return apperr.NotFound("job not found")
	case errors.Is(err, jobstore.ErrAlreadyApplied):
		return apperr.Conflict("you have already applied to this job")
	case errors.Is(err, notificationstore.ErrNotFound):
		return apperr.NotFound("notification not found")
	}
	return err
}

// decodeValid decodes a JSON body into dst and runs tag validation.
func decodeValid(r *http.Request, dst any) error {
	if err := respond.Decode(r, dst); err != nil {
		return err
	}
	return inputval.Validate(dst).Err()
}

// authSelf requires a signed-in caller acting on their own userID.
func authSelf(r *http.Request, userID string) error {
	return auth.RequireSelf(r, userID)
}

func nowUTC() time.Time { return time.Now().UTC() }
