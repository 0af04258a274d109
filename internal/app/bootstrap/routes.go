// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	accountsfeature "github.com/dalemusser/kinshealth/internal/app/features/accounts"
	adminfeature "github.com/dalemusser/kinshealth/internal/app/features/admin"
	alertsfeature "github.com/dalemusser/kinshealth/internal/app/features/alerts"
	caregiversfeature "github.com/dalemusser/kinshealth/internal/app/features/caregivers"
	filesfeature "github.com/dalemusser/kinshealth/internal/app/features/files"
	forumfeature "github.com/dalemusser/kinshealth/internal/app/features/forum"
	healthfeature "github.com/dalemusser/kinshealth/internal/app/features/health"
	notificationsfeature "github.com/dalemusser/kinshealth/internal/app/features/notifications"
	paymentsfeature "github.com/dalemusser/kinshealth/internal/app/features/payments"
	providersfeature "github.com/dalemusser/kinshealth/internal/app/features/providers"
	"github.com/dalemusser/kinshealth/internal/app/store/audit"
	"github.com/dalemusser/kinshealth/internal/app/system/auditlog"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/filestore"
	"github.com/dalemusser/kinshealth/internal/app/system/geo"
	"github.com/dalemusser/kinshealth/internal/app/system/messaging"
	"github.com/dalemusser/kinshealth/internal/app/system/payments"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"github.com/dalemusser/kinshealth/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...bootstrap.Version=".
var Version = "dev"

// BuildHandler assembles the external adapters and mounts every API area.
//
// Layout:
//
//	/, /health          Mongo ping
//	/metrics            Prometheus
//	/webhook            Stripe events (raw body, signature checked)
//	/api/v1/caregivers  caregiver job search, apply, profile, notifications
//	/api/v1/providers   caregiver matching, job posting, billing
//	/api/v1/forum       threads, posts, replies, likes
//	/api/v1/notifications
//	/api/v1/auth        account lifecycle
//	/api/v1/admin       X-Admin-Key operations
//	/api/v1/email       alert triggers
//	/api/v1/twilio      SMS
//	/api/v1/files       S3 uploads
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	rt := deps.Runtime
	if rt == nil {
		rt = &Runtime{}
	}

	mgr := auth.NewManager(appCfg.JWTSecret, appCfg.AdminKeyHash, logger)
	tx := txn.New(deps.MongoClient, logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Account: appCfg.AuditLogAccount,
		Admin:   appCfg.AuditLogAdmin,
	})

	geocoder, err := geo.NewGoogleGeocoder(appCfg.GoogleMapsAPIKey, logger)
	if err != nil {
		logger.Error("geocoder init failed", zap.Error(err))
		return nil, err
	}
	locator := &geo.IPLocator{
		URLTemplate: appCfg.GeoIPURL,
		Fallback:    geo.Coordinates{Lat: appCfg.GeoFallbackLat, Lng: appCfg.GeoFallbackLng},
		Cache:       deps.Cache,
		TTL:         appCfg.GeoCacheTTL,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		Log:         logger,
	}
	gateway := payments.NewStripe(appCfg.StripeSecretKey, logger)
	sms := messaging.NewTwilio(appCfg.TwilioAccountSID, appCfg.TwilioAuthToken, appCfg.TwilioFrom, logger)

	var files *filestore.Store
	if appCfg.StorageS3Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		files, err = filestore.New(ctx, filestore.Config{
			Region: appCfg.StorageS3Region,
			Bucket: appCfg.StorageS3Bucket,
			Prefix: appCfg.StorageS3Prefix,
		}, logger)
		cancel()
		if err != nil {
			logger.Error("file storage init failed", zap.Error(err))
			return nil, err
		}
	} else {
		logger.Warn("storage_s3_bucket not set; file uploads disabled")
	}

	searchLimiter := ratelimit.New(appCfg.SearchRateLimit, time.Minute)
	smsLimiter := ratelimit.New(appCfg.SMSRateLimit, time.Minute)

	// A nil dispatcher must stay a nil interface for the handlers' nil checks.
	var providerAlerts providersfeature.AlertQueue
	var alertQueue alertsfeature.Queue
	if rt.Alerts != nil {
		providerAlerts = rt.Alerts
		alertQueue = rt.Alerts
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(rt.Metrics.Middleware)
	// Attaches the bearer-token user when present; anonymous otherwise.
	r.Use(mgr.LoadUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, Version, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Get("/", healthHandler.Serve)

	r.Handle("/metrics", rt.Metrics.Handler())

	paymentsHandler := paymentsfeature.NewHandler(db, gateway, appCfg.StripeWebhookSecret, logger)
	paymentsHandler.PriceID = appCfg.StripePriceID
	paymentsHandler.TrialDays = appCfg.StripeTrialDays
	r.Mount("/webhook", paymentsfeature.WebhookRoutes(paymentsHandler))

	r.Route("/api/v1", func(api chi.Router) {
		caregiversHandler := caregiversfeature.NewHandler(db, tx, geocoder, rt.Metrics, logger)
		api.Mount("/caregivers", caregiversfeature.Routes(caregiversHandler, mgr, searchLimiter))

		providersHandler := providersfeature.NewHandler(db, geocoder, locator, providerAlerts, rt.Metrics, logger)
		providerRouter := providersfeature.Routes(providersHandler, mgr, searchLimiter)
		paymentsfeature.Register(providerRouter, paymentsHandler, mgr)
		api.Mount("/providers", providerRouter)

		forumHandler := forumfeature.NewHandler(db, tx, logger)
		api.Mount("/forum", forumfeature.Routes(forumHandler, mgr))

		notificationsHandler := notificationsfeature.NewHandler(db, logger)
		api.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, mgr))

		accountsHandler := accountsfeature.NewHandler(db, tx, gateway, mgr, logger)
		accountsHandler.Audit = auditLog
		api.Mount("/auth", accountsfeature.Routes(accountsHandler))

		adminHandler := adminfeature.NewHandler(db, tx, logger)
		adminHandler.Audit = auditLog
		api.Mount("/admin", adminfeature.Routes(adminHandler, mgr))

		alertsHandler := alertsfeature.NewHandler(db, alertQueue, sms, rt.Metrics, logger)
		api.Mount("/email", alertsfeature.EmailRoutes(alertsHandler, mgr))
		api.Mount("/twilio", alertsfeature.SMSRoutes(alertsHandler, mgr, smsLimiter))

		filesHandler := filesfeature.NewHandler(files, logger)
		api.Mount("/files", filesfeature.Routes(filesHandler, mgr))
	})

	return r, nil
}
