// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds kinshealth's app-level configuration. WAFFLE's CoreConfig
// still owns ports, TLS, CORS, logging and body limits.
type AppConfig struct {
	// MongoDB
	MongoURI            string
	MongoDatabase       string
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectRetries uint64

	// Auth. Tokens are issued upstream and verified with JWTSecret.
	JWTSecret    string
	AdminKeyHash string // bcrypt hash of the X-Admin-Key value

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	StripeTrialDays     int

	// Twilio
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	// Customer.io transactional templates
	CustomerIOAppKey       string
	JobAlertTemplate       string
	CandidateAlertTemplate string
	AlertFanoutCap         int
	AlertQueueSize         int

	// Geocoding and IP geolocation
	GoogleMapsAPIKey string
	GeoIPURL         string // one %s for the client IP
	GeoFallbackLat   float64
	GeoFallbackLng   float64
	GeoCacheTTL      time.Duration

	// Cache; blank means in-memory
	RedisURL string

	// S3 public uploads
	StorageS3Region string
	StorageS3Bucket string
	StorageS3Prefix string

	// Audit destinations: all, db, log or off
	AuditLogAccount string
	AuditLogAdmin   string

	// Per-IP request budgets per minute
	SearchRateLimit int
	SMSRateLimit    int
}
