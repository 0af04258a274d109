// internal/app/features/payments/routes.go
package payments

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Register adds the billing routes to the provider router. All of them
// require a signed-in provider.
func Register(r chi.Router, h *Handler, mgr *auth.Manager) {
	r.Group(func(pr chi.Router) {
		pr.Use(mgr.RequireRole(models.RoleProvider))
		pr.Post("/create-customer", h.HandleCreateCustomer)
		pr.Post("/create-setup-intent", h.HandleCreateSetupIntent)
		pr.Post("/create-subscription", h.HandleCreateSubscription)
		pr.Post("/cancel-subscription", h.HandleCancelSubscription)
		pr.Post("/update-subscription", h.HandleUpdateSubscription)
		pr.Post("/payment-methods", h.HandlePaymentMethods)
		pr.Get("/subscription/{customerId}", h.ServeSubscription)
		pr.Post("/subscription/resume", h.HandleResumeSubscription)
		pr.Get("/billing-history/{customerId}", h.ServeBillingHistory)
	})
}

// WebhookRoutes mounts the unauthenticated, signature-checked webhook.
func WebhookRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleWebhook)
	return r
}
