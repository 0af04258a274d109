// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/auditlog"
	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys are read from config files, KINSHEALTH_* environment
// variables and flags (flags > env > files > defaults).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kinshealth", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},
	{Name: "mongo_connect_retries", Default: 3, Desc: "Extra MongoDB dial attempts with backoff"},

	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for bearer tokens (required outside dev)"},
	{Name: "admin_key_hash", Default: "", Desc: "bcrypt hash of the admin key; blank closes /api/v1/admin"},

	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret key; blank disables payments"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret"},
	{Name: "stripe_price_id", Default: "", Desc: "Default subscription price"},
	{Name: "stripe_trial_days", Default: 7, Desc: "Trial length for new subscriptions"},

	{Name: "twilio_account_sid", Default: "", Desc: "Twilio account SID"},
	{Name: "twilio_auth_token", Default: "", Desc: "Twilio auth token"},
	{Name: "twilio_from", Default: "", Desc: "Twilio sending number (E.164)"},

	{Name: "customerio_app_key", Default: "", Desc: "Customer.io app API key; blank logs emails instead"},
	{Name: "customerio_job_alert_template", Default: "12", Desc: "Transactional template for new-job alerts"},
	{Name: "customerio_candidate_alert_template", Default: "11", Desc: "Transactional template for new-caregiver alerts"},
	{Name: "alert_fanout_cap", Default: 1000, Desc: "Max recipients per job alert"},
	{Name: "alert_queue_size", Default: 256, Desc: "Buffered alert requests"},

	{Name: "google_maps_api_key", Default: "", Desc: "Google Maps geocoding key; blank disables geocoding"},
	{Name: "geoip_url", Default: "", Desc: "IP lookup URL template with one %s for the IP"},
	{Name: "geo_fallback_lat", Default: "47.6062", Desc: "Latitude used when IP lookup fails"},
	{Name: "geo_fallback_lng", Default: "-122.3321", Desc: "Longitude used when IP lookup fails"},
	{Name: "geo_cache_ttl", Default: "24h", Desc: "How long IP lookups are cached"},

	{Name: "redis_url", Default: "", Desc: "Redis URL for the cache; blank uses memory"},

	{Name: "storage_s3_region", Default: "us-west-2", Desc: "AWS region for uploads"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket for uploads; blank disables /api/v1/files"},
	{Name: "storage_s3_prefix", Default: "", Desc: "S3 key prefix"},

	{Name: "audit_log_account", Default: "all", Desc: "Account events: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin events: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "search_rate_limit", Default: 60, Desc: "Search requests per IP per minute"},
	{Name: "sms_rate_limit", Default: 10, Desc: "SMS sends per IP per minute"},
}

// LoadConfig loads WAFFLE core config and the kinshealth keys. Store
// timeouts come from KINSHEALTH_TIMEOUT_* and are applied here too.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, v, err := config.LoadWithAppConfig(logger, "KINSHEALTH", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            v.String("mongo_uri"),
		MongoDatabase:       v.String("mongo_database"),
		MongoMaxPoolSize:    uint64(v.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(v.Int("mongo_min_pool_size")),
		MongoConnectRetries: uint64(v.Int("mongo_connect_retries")),

		JWTSecret:    v.String("jwt_secret"),
		AdminKeyHash: v.String("admin_key_hash"),

		StripeSecretKey:     v.String("stripe_secret_key"),
		StripeWebhookSecret: v.String("stripe_webhook_secret"),
		StripePriceID:       v.String("stripe_price_id"),
		StripeTrialDays:     v.Int("stripe_trial_days"),

		TwilioAccountSID: v.String("twilio_account_sid"),
		TwilioAuthToken:  v.String("twilio_auth_token"),
		TwilioFrom:       v.String("twilio_from"),

		CustomerIOAppKey:       v.String("customerio_app_key"),
		JobAlertTemplate:       v.String("customerio_job_alert_template"),
		CandidateAlertTemplate: v.String("customerio_candidate_alert_template"),
		AlertFanoutCap:         v.Int("alert_fanout_cap"),
		AlertQueueSize:         v.Int("alert_queue_size"),

		GoogleMapsAPIKey: v.String("google_maps_api_key"),
		GeoIPURL:         v.String("geoip_url"),
		GeoCacheTTL:      v.Duration("geo_cache_ttl", 24*time.Hour),

		RedisURL: v.String("redis_url"),

		StorageS3Region: v.String("storage_s3_region"),
		StorageS3Bucket: v.String("storage_s3_bucket"),
		StorageS3Prefix: v.String("storage_s3_prefix"),

		AuditLogAccount: v.String("audit_log_account"),
		AuditLogAdmin:   v.String("audit_log_admin"),

		SearchRateLimit: v.Int("search_rate_limit"),
		SMSRateLimit:    v.Int("sms_rate_limit"),
	}

	appCfg.GeoFallbackLat, err = parseCoord("geo_fallback_lat", v.String("geo_fallback_lat"))
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg.GeoFallbackLng, err = parseCoord("geo_fallback_lng", v.String("geo_fallback_lng"))
	if err != nil {
		return nil, AppConfig{}, err
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("store timeouts overridden from env", zap.Int("count", n))
	}
	return coreCfg, appCfg, nil
}

func parseCoord(key, s string) (float64, error) {
	var f float64
	if _, err := fmt.Sscan(s, &f); err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, s)
	}
	return f, nil
}

// ValidateConfig rejects configs that cannot work before anything dials.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.JWTSecret == "" && coreCfg.Env != "dev" {
		return errors.New("jwt_secret is required outside dev")
	}
	if appCfg.StripeSecretKey != "" && appCfg.StripeWebhookSecret == "" {
		return errors.New("stripe_webhook_secret is required when stripe_secret_key is set")
	}
	if appCfg.GeoFallbackLat < -90 || appCfg.GeoFallbackLat > 90 ||
		appCfg.GeoFallbackLng < -180 || appCfg.GeoFallbackLng > 180 {
		return errors.New("geo fallback coordinates are out of range")
	}
	if !auditlog.ValidSetting(appCfg.AuditLogAccount) || !auditlog.ValidSetting(appCfg.AuditLogAdmin) {
		return errors.New("audit_log_account and audit_log_admin must be all, db, log or off")
	}
	if appCfg.SearchRateLimit <= 0 || appCfg.SMSRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	return nil
}
