package payments

import (
	"context"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/dalemusser/kinshealth/internal/app/system/reqparams"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type customerRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name"`
	UserID string `json:"userID"`
}

// HandleCreateCustomer handles POST /create-customer. When userID is given
// the new customer id is recorded on the user and the contact.
func (h *Handler) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Gateway.CreateCustomer(ctx, req.Email, req.Name)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "create customer"), "")
		return
	}
	if req.UserID != "" {
		if err := h.Users.SetCustomerID(ctx, req.UserID, id); err != nil {
			h.Log.Warn("customer id not stored on user", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}
	if err := h.Contacts.UpsertByEmail(ctx, models.Contact{
		Email: req.Email, UserID: req.UserID, Role: models.RoleProvider, CustomerID: id,
	}); err != nil {
		h.Log.Warn("customer id not stored on contact", zap.String("email", req.Email), zap.Error(err))
	}
	respond.OK(w, "customer created", respond.M{"customerId": id})
}

type customerRef struct {
	CustomerID string `json:"customerId" validate:"required"`
}

// HandleCreateSetupIntent handles POST /create-setup-intent.
func (h *Handler) HandleCreateSetupIntent(w http.ResponseWriter, r *http.Request) {
	var req customerRef
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	secret, err := h.Gateway.CreateSetupIntent(ctx, req.CustomerID)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "create setup intent"), "")
		return
	}
	respond.OK(w, "", respond.M{"clientSecret": secret})
}

type subscribeRequest struct {
	CustomerID      string `json:"customerId" validate:"required"`
	PriceID         string `json:"priceId"`
	TrialPeriodDays *int64 `json:"trialPeriodDays" validate:"omitempty,gte=0"`
}

// HandleCreateSubscription handles POST /create-subscription.
func (h *Handler) HandleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if req.PriceID == "" {
		req.PriceID = h.PriceID
	}
	if req.PriceID == "" {
		respond.Error(w, r, h.Log, errPriceRequired, "")
		return
	}
	trial := int64(DefaultTrialDays)
	if h.TrialDays > 0 {
		trial = int64(h.TrialDays)
	}
	if req.TrialPeriodDays != nil {
		trial = *req.TrialPeriodDays
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sub, err := h.Gateway.CreateSubscription(ctx, req.CustomerID, req.PriceID, trial)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "create subscription"), "")
		return
	}
	respond.OK(w, "subscription created", respond.M{"subscription": sub})
}

type subscriptionRef struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	PriceID        string `json:"priceId"`
}

// HandleCancelSubscription handles POST /cancel-subscription.
func (h *Handler) HandleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionOp(w, r, false, "cancel subscription", func(ctx context.Context, req subscriptionRef) (any, error) {
		return h.Gateway.CancelSubscription(ctx, req.SubscriptionID)
	})
}

// HandleUpdateSubscription handles POST /update-subscription.
func (h *Handler) HandleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionOp(w, r, true, "update subscription", func(ctx context.Context, req subscriptionRef) (any, error) {
		return h.Gateway.UpdateSubscription(ctx, req.SubscriptionID, req.PriceID)
	})
}

// HandleResumeSubscription handles POST /subscription/resume.
func (h *Handler) HandleResumeSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionOp(w, r, false, "resume subscription", func(ctx context.Context, req subscriptionRef) (any, error) {
		return h.Gateway.ResumeSubscription(ctx, req.SubscriptionID)
	})
}

func (h *Handler) subscriptionOp(w http.ResponseWriter, r *http.Request, needPrice bool, op string,
	fn func(context.Context, subscriptionRef) (any, error)) {
	var req subscriptionRef
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	if needPrice && req.PriceID == "" {
		respond.Error(w, r, h.Log, errPriceRequired, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sub, err := fn(ctx, req)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, op), "")
		return
	}
	respond.OK(w, "", respond.M{"subscription": sub})
}

// HandlePaymentMethods handles POST /payment-methods.
func (h *Handler) HandlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	var req customerRef
	if err := decodeValid(r, &req); err != nil {
		respond.Error(w, r, h.Log, err, "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pms, err := h.Gateway.PaymentMethods(ctx, req.CustomerID)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "list payment methods"), "")
		return
	}
	respond.OK(w, "", respond.M{"paymentMethods": pms})
}

// ServeSubscription handles GET /subscription/{customerId}.
func (h *Handler) ServeSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sub, err := h.Gateway.CustomerSubscription(ctx, chi.URLParam(r, "customerId"))
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "load subscription"), "")
		return
	}
	respond.OK(w, "", respond.M{"subscription": sub})
}

// ServeBillingHistory handles GET /billing-history/{customerId}?limit.
func (h *Handler) ServeBillingHistory(w http.ResponseWriter, r *http.Request) {
	limit := int64(12)
	if n, ok := reqparams.Int(r, "limit"); ok && n > 0 && n <= 100 {
		limit = int64(n)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inv, err := h.Gateway.Invoices(ctx, chi.URLParam(r, "customerId"), limit)
	if err != nil {
		respond.Error(w, r, h.Log, gatewayErr(err, "load billing history"), "")
		return
	}
	respond.OK(w, "", respond.M{"invoices": inv})
}
