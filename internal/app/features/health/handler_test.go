package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/features/health"
	"github.com/dalemusser/kinshealth/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type probe struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
	Message  string `json:"message"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), "1.2.3", zap.NewNop())

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		h.Serve(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		var p probe
		if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Status != "ok" || p.Database != "connected" || p.Version != "1.2.3" {
			t.Errorf("probe = %+v", p)
		}
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	// Nothing listens on this port; the ping fails once its timeout elapses.
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(context.Background())

	h := health.NewHandler(client, "", zap.NewNop())
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	var p probe
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Status != "error" || p.Database != "disconnected" {
		t.Errorf("probe = %+v", p)
	}
}
