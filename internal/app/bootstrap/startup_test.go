package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/cache"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testAppConfig() AppConfig {
	return AppConfig{
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "kinshealth_test",
		JWTSecret:       "test-secret",
		StripeTrialDays: 7,
		GeoFallbackLat:  47.6062,
		GeoFallbackLng:  -122.3321,
		GeoCacheTTL:     time.Hour,
		AlertFanoutCap:  10,
		SearchRateLimit: 100,
		SMSRateLimit:    5,
		AuditLogAccount: "all",
		AuditLogAdmin:   "db",
	}
}

func TestValidateConfig(t *testing.T) {
	logger := zap.NewNop()
	prod := &config.CoreConfig{Env: "prod"}
	dev := &config.CoreConfig{Env: "dev"}

	if err := ValidateConfig(prod, testAppConfig(), logger); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*AppConfig){
		"bad mongo uri":          func(c *AppConfig) { c.MongoURI = "postgres://nope" },
		"missing jwt secret":     func(c *AppConfig) { c.JWTSecret = "" },
		"stripe without webhook": func(c *AppConfig) { c.StripeSecretKey = "sk_test" },
		"latitude out of range":  func(c *AppConfig) { c.GeoFallbackLat = 123 },
		"zero search limit":      func(c *AppConfig) { c.SearchRateLimit = 0 },
		"bad audit setting":      func(c *AppConfig) { c.AuditLogAdmin = "everywhere" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testAppConfig()
			mutate(&cfg)
			if err := ValidateConfig(prod, cfg, logger); err == nil {
				t.Error("expected an error")
			}
		})
	}

	cfg := testAppConfig()
	cfg.JWTSecret = ""
	if err := ValidateConfig(dev, cfg, logger); err != nil {
		t.Errorf("dev should allow a blank jwt secret: %v", err)
	}
}

func TestParseCoord(t *testing.T) {
	if f, err := parseCoord("lat", "-122.3321"); err != nil || f != -122.3321 {
		t.Errorf("parseCoord = %v, %v", f, err)
	}
	if _, err := parseCoord("lat", "north"); err == nil {
		t.Error("expected error for non-numeric coordinate")
	}
}

func testDeps(t *testing.T) DBDeps {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return DBDeps{
		MongoClient:   db.Client(),
		MongoDatabase: db,
		Cache:         cache.NewMemory(),
		Runtime:       &Runtime{},
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	deps := testDeps(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, &config.CoreConfig{}, testAppConfig(), deps, zap.NewNop()); err != nil {
			t.Fatalf("EnsureSchema pass %d: %v", i+1, err)
		}
	}

	names, err := deps.MongoDatabase.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("list collections: %v", err)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"users", "jobs", "notifications", "threads", "posts", "likes", "contacts"} {
		if !strings.Contains(got, want) {
			t.Errorf("collection %q missing from %s", want, got)
		}
	}
}

func TestStartupShutdown(t *testing.T) {
	deps := testDeps(t)
	core := &config.CoreConfig{Env: "dev"}

	if err := Startup(context.Background(), core, testAppConfig(), deps, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if deps.Runtime.Metrics == nil || deps.Runtime.Alerts == nil {
		t.Fatal("Startup did not populate the runtime")
	}

	// No Mongo provider in deps, so Shutdown leaves the shared test client alone.
	if err := Shutdown(context.Background(), core, testAppConfig(), deps, zap.NewNop()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := deps.Runtime.Alerts.EnqueueCaregiverAlert("cg1"); err == nil {
		t.Error("enqueue after shutdown should fail")
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	deps := testDeps(t)
	core := &config.CoreConfig{Env: "dev"}
	appCfg := testAppConfig()

	if err := Startup(context.Background(), core, appCfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	defer deps.Runtime.Alerts.Stop()

	h, err := BuildHandler(core, appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	mgr := auth.NewManager(appCfg.JWTSecret, "", zap.NewNop())
	caregiverToken, err := mgr.Issue(auth.User{ID: "cg1", Role: "caregiver"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"root health", http.MethodGet, "/", "", "", http.StatusOK},
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"public job feed", http.MethodGet, "/api/v1/caregivers/jobs/cg1", "", "", http.StatusNotFound},
		{"notifications need sign in", http.MethodGet, "/api/v1/notifications/fetch?userId=cg1", "", "", http.StatusUnauthorized},
		{"billing needs provider", http.MethodGet, "/api/v1/providers/subscription/cus_1", caregiverToken, "", http.StatusForbidden},
		{"admin closed without hash", http.MethodGet, "/api/v1/admin/users/cg1", "", "", http.StatusUnauthorized},
		{"uploads need sign in", http.MethodPost, "/api/v1/files/upload", "", "", http.StatusUnauthorized},
		{"uploads disabled without bucket", http.MethodDelete, "/api/v1/files/", caregiverToken, `{"url":"https://b.s3.amazonaws.com/k"}`, http.StatusBadGateway},
		{"webhook signature", http.MethodPost, "/webhook", "", `{"type":"invoice.paid"}`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("%s %s: status %d, want %d (body: %s)", tc.method, tc.path, rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
