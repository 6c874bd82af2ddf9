// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/timeouts"
)

type Handler struct {
	Accounts *accountstore.Store
	Settings *settingsstore.Store
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, settings *settingsstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Settings: settings, Log: logger}
}

// ServeProfile handles GET /profile: the signed-in user's directory record
// plus their settings in one payload.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, collection, err := h.Accounts.FindByID(ctx, user.ID)
	if errors.Is(err, accountstore.ErrNotFound) {
		// Session outlived the directory record.
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		h.Log.Error("profile: account lookup failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	settings, err := h.Settings.Get(ctx, user.ID)
	if err != nil {
		h.Log.Error("profile: settings lookup failed", zap.String("account_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account":    acct,
		"collection": collection,
		"settings":   settings,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
