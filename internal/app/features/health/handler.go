package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler answers liveness probes with a primary ping.
type Handler struct {
	Client  *mongo.Client
	Version string
	Started time.Time
	Log     *zap.Logger
}

func NewHandler(client *mongo.Client, version string, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  client,
		Version: version,
		Started: time.Now(),
		Log:     logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
	Uptime   string `json:"uptime"`
	Message  string `json:"message,omitempty"`
}

// Serve handles GET / and GET /health.
//
// Healthy: 200 {"status":"ok","database":"connected",...}
// Ping failure: 503 {"status":"error","database":"disconnected","message":"Database unavailable"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Version:  h.Version,
		Uptime:   time.Since(h.Started).Round(time.Second).String(),
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
