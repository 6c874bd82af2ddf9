// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/timeouts"
)

type Handler struct {
	Store *settingsstore.Store
	Log   *zap.Logger
}

func NewHandler(store *settingsstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Log: logger}
}

// ServeSettings handles GET /settings. Accounts the fan-out has not reached
// yet see the defaults.
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.Store.Get(ctx, user.ID)
	if err != nil {
		h.Log.Error("get settings failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type updateRequest struct {
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	DarkMode      bool   `json:"darkMode"`
	EmailAlerts   bool   `json:"emailAlerts"`
}

// HandleUpdate handles PUT /settings.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	switch req.Theme {
	case "light", "dark":
		// ok
	default:
		writeError(w, http.StatusBadRequest, `theme must be "light" or "dark"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Store.Save(ctx, user.ID, settingsstore.Update{
		Notifications: req.Notifications,
		Language:      req.Language,
		Theme:         req.Theme,
		DarkMode:      req.DarkMode,
		EmailAlerts:   req.EmailAlerts,
	})
	if err != nil {
		h.Log.Error("save settings failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s, err := h.Store.Get(ctx, user.ID)
	if err != nil {
		h.Log.Error("reload settings failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
