// Package directory gives administrators a view over the role-partitioned
// account collections and the provisioning audit trail.
package directory

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	"github.com/medinotify/portal/internal/app/system/paging"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"github.com/medinotify/portal/internal/domain/models"
)

const defaultListLimit = 100

type Handler struct {
	Accounts *accountstore.Store
	Audit    *auditstore.Store
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, audit *auditstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Audit: audit, Log: logger}
}

// ServeSummary handles GET /directory: per-collection account counts.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts := map[string]int64{}
	for _, coll := range accountstore.Collections() {
		n, err := h.Accounts.Count(ctx, coll)
		if err != nil {
			h.Log.Error("count accounts failed", zap.String("collection", coll), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		counts[coll] = n
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// ServeCollection handles GET /directory/{collection}: accounts in one
// role collection.
func (h *Handler) ServeCollection(w http.ResponseWriter, r *http.Request) {
	coll := chi.URLParam(r, "collection")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Accounts.List(ctx, coll, paging.Limit(r, defaultListLimit))
	if err == accountstore.ErrUnknownCollection {
		writeError(w, http.StatusNotFound, "unknown collection")
		return
	}
	if err != nil {
		h.Log.Error("list accounts failed", zap.String("collection", coll), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": coll, "accounts": list})
}

// ServeAudit handles GET /directory/audit: recent provisioning decisions.
// Pass ?defaulted=1 to see only accounts routed on a failed role lookup,
// the ones an operator should re-check.
func (h *Handler) ServeAudit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.ProvisionAudit
		err  error
	)
	if r.URL.Query().Get("defaulted") != "" {
		list, err = h.Audit.ListDefaulted(ctx, paging.Limit(r, defaultListLimit))
	} else {
		list, err = h.Audit.ListRecent(ctx, paging.Limit(r, defaultListLimit))
	}
	if err != nil {
		h.Log.Error("list provision audit failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []models.ProvisionAudit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": list})
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus handles POST /directory/{collection}/{id}/status:
// enable or disable an account.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	coll := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Status != models.StatusActive && req.Status != models.StatusDisabled {
		writeError(w, http.StatusBadRequest, `status must be "active" or "disabled"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Accounts.SetStatus(ctx, coll, id, req.Status)
	switch err {
	case nil:
	case accountstore.ErrUnknownCollection:
		writeError(w, http.StatusNotFound, "unknown collection")
		return
	case accountstore.ErrNotFound:
		writeError(w, http.StatusNotFound, "account not found")
		return
	default:
		h.Log.Error("set account status failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("account status changed",
		zap.String("collection", coll),
		zap.String("account_id", id),
		zap.String("status", req.Status))
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
