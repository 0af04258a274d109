package payments

import (
	"context"
	"errors"
	"io"
	"net/http"

	contactstore "github.com/dalemusser/kinshealth/internal/app/store/contacts"
	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/payments"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// maxWebhookBytes bounds the raw payload read for signature checks.
const maxWebhookBytes = 64 << 10

var errPriceRequired = apperr.Validation("priceId is required")

// HandleWebhook handles POST /webhook. The body is read raw because the
// signature covers the exact bytes sent.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("unreadable body"), "")
		return
	}
	ev, err := payments.ParseEvent(payload, r.Header.Get("Stripe-Signature"), h.WebhookSecret)
	if err != nil {
		h.Log.Warn("webhook rejected", zap.Error(err))
		respond.Error(w, r, h.Log, apperr.Validation("webhook signature verification failed"), "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.applyEvent(ctx, ev); err != nil {
		respond.Error(w, r, h.Log, err, "failed to apply webhook event")
		return
	}
	respond.JSON(w, http.StatusOK, respond.M{"received": true})
}

// applyEvent updates the contact for ev. Unknown customers and events that
// carry no billing change are logged and acknowledged.
func (h *Handler) applyEvent(ctx context.Context, ev payments.Event) error {
	log := h.Log.With(zap.String("event_id", ev.ID), zap.String("type", ev.Type), zap.String("customer_id", ev.CustomerID))
	if ev.CustomerID == "" {
		log.Info("webhook event without customer")
		return nil
	}
	contact, err := h.Contacts.GetByCustomerID(ctx, ev.CustomerID)
	if errors.Is(err, contactstore.ErrNotFound) {
		log.Warn("webhook for unknown customer")
		return nil
	}
	if err != nil {
		return err
	}

	patch, ok := payments.PatchFor(ev, contact.Trial)
	if !ok {
		log.Info("webhook event noted")
		return nil
	}
	err = h.Contacts.UpdateBilling(ctx, ev.CustomerID, contactstore.Billing{
		Subscribed:   patch.Subscribed,
		Trial:        patch.Trial,
		TrialEndDate: patch.TrialEndDate,
		SetTrialEnd:  patch.SetTrialEnd,
	})
	if err != nil {
		return err
	}
	log.Info("contact billing updated",
		zap.String("user_id", contact.UserID),
		zap.Bool("subscribed", patch.Subscribed),
		zap.String("trial", patch.Trial))
	return nil
}
