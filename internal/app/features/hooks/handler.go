// Package hooks is the HTTP trigger surface. The identity provider and the
// LIS (laboratory information system) POST events here; the same payloads
// also arrive over AMQP, and both paths run the same provisioning handlers.
package hooks

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/provision"
	"github.com/medinotify/portal/internal/app/system/metrics"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-MediNotify-Secret"

type Handler struct {
	Provisioner *provision.Provisioner
	Secret      string
	Log         *zap.Logger
}

func NewHandler(provisioner *provision.Provisioner, secret string, logger *zap.Logger) *Handler {
	return &Handler{Provisioner: provisioner, Secret: secret, Log: logger}
}

// HandleAccountCreated handles POST /hooks/account-created.
//
// Responses: 202 on success, 400 for payloads that can never succeed, 401
// for a bad secret, 500 for transient failures (the sender retries, which is
// safe because provisioning is idempotent).
func (h *Handler) HandleAccountCreated(w http.ResponseWriter, r *http.Request) {
	metrics.TriggerDeliveries.WithLabelValues("hook", "account.created").Inc()
	if !h.authorized(w, r) {
		return
	}

	var evt provision.AccountCreated
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.badRequest(w, "invalid JSON payload")
		return
	}

	err := h.Provisioner.HandleAccountCreated(r.Context(), evt)
	h.finish(w, r, "account.created", err)
}

// HandleResultCreated handles POST /hooks/result-created.
func (h *Handler) HandleResultCreated(w http.ResponseWriter, r *http.Request) {
	metrics.TriggerDeliveries.WithLabelValues("hook", "result.created").Inc()
	if !h.authorized(w, r) {
		return
	}

	var evt provision.ResultCreated
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.badRequest(w, "invalid JSON payload")
		return
	}

	err := h.Provisioner.HandleResultCreated(r.Context(), evt)
	h.finish(w, r, "result.created", err)
}

func (h *Handler) authorized(w http.ResponseWriter, r *http.Request) bool {
	got := r.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
		h.Log.Warn("webhook rejected: bad secret", zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return false
	}
	return true
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, event string, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, provision.ErrInvalidEvent):
		h.badRequest(w, "missing required fields")
	default:
		h.Log.Error("webhook handling failed",
			zap.String("event", event),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
