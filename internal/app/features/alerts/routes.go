// internal/app/features/alerts/routes.go
package alerts

import (
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
)

// EmailRoutes mounts under /api/v1/email.
func EmailRoutes(h *Handler, mgr *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(mgr.RequireSignedIn)
	r.Post("/send-job-alerts", h.HandleSendJobAlerts)
	r.Post("/send-new-caregivers-alert", h.HandleSendCaregiverAlert)
	return r
}

// SMSRoutes mounts under /api/v1/twilio. Sends are per-IP limited.
func SMSRoutes(h *Handler, mgr *auth.Manager, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(mgr.RequireSignedIn)
	r.With(ratelimit.Middleware(limiter, h.Log)).Post("/sms/send", h.HandleSendSMS)
	return r
}
