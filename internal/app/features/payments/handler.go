// internal/app/features/payments/handler.go
package payments

import (
	"errors"
	"net/http"

	contactstore "github.com/dalemusser/kinshealth/internal/app/store/contacts"
	userstore "github.com/dalemusser/kinshealth/internal/app/store/users"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/inputval"
	"github.com/dalemusser/kinshealth/internal/app/system/payments"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultTrialDays applies when a subscription request names no trial.
const DefaultTrialDays = 7

// Handler serves the provider billing endpoints and the payment webhook.
type Handler struct {
	Gateway       payments.Gateway
	Users         *userstore.Store
	Contacts      *contactstore.Store
	WebhookSecret string
	// PriceID is used when a subscribe request names none.
	PriceID   string
	TrialDays int
	Log       *zap.Logger
}

// NewHandler wires the billing handler.
func NewHandler(db *mongo.Database, gw payments.Gateway, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{
		Gateway:       gw,
		Users:         userstore.New(db),
		Contacts:      contactstore.New(db),
		WebhookSecret: webhookSecret,
		TrialDays:     DefaultTrialDays,
		Log:           logger,
	}
}

// gatewayErr classifies errors from the payment provider.
func gatewayErr(err error, op string) error {
	if errors.Is(err, payments.ErrNotConfigured) {
		return apperr.Upstream("payments are not configured", err)
	}
	return apperr.Upstream(op+" failed", err)
}

func decodeValid(r *http.Request, dst any) error {
	if err := respond.Decode(r, dst); err != nil {
		return err
	}
	return inputval.Validate(dst).Err()
}
