package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medinotify/portal/internal/app/events"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Broker *events.Broker
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. broker may be nil when the AMQP
// surface is disabled.
func NewHandler(client *mongo.Client, broker *events.Broker, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Broker: broker,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Queue    string `json:"queue,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "queue":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…" }
//
// A broken queue connection is reported but does not fail the check; the
// webhook trigger surface still works without it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Broker != nil {
		if h.Broker.Closed() {
			h.Log.Warn("health-check: event broker disconnected")
			resp.Queue = "disconnected"
		} else {
			resp.Queue = "connected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
