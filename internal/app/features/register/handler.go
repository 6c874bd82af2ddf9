// Package register creates password accounts directly in the portal.
// Registration runs the same provisioning fan-out as an identity-provider
// event, so an in-portal signup and an external signup end up identical.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/app/system/authutil"
	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/app/system/timeouts"
)

type Handler struct {
	Accounts    *accountstore.Store
	Provisioner *provision.Provisioner
	Log         *zap.Logger
}

func NewHandler(accounts *accountstore.Store, provisioner *provision.Provisioner, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Provisioner: provisioner, Log: logger}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// HandleRegister handles POST /register.
//
// New registrations are always patients; staff accounts come from the
// identity provider with role claims. The password hash is written after
// provisioning because the provisioning payload deliberately never carries
// credentials.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	email := normalize.Email(req.Email)
	if !authutil.ValidEmail(email) {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, http.StatusBadRequest, "display name is required")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if _, _, err := h.Accounts.FindByEmail(ctx, email); err == nil {
		writeError(w, http.StatusConflict, "an account with this email already exists")
		return
	} else if !errors.Is(err, accountstore.ErrNotFound) {
		h.Log.Error("register: email lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	id := uuid.NewString()
	evt := provision.AccountCreated{
		ID:          id,
		Email:       email,
		DisplayName: req.DisplayName,
		AuthMethod:  "password",
	}
	if err := h.Provisioner.HandleAccountCreated(ctx, evt); err != nil {
		h.Log.Error("register: provisioning failed", zap.String("email", email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("register: hash password failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Accounts.SetPasswordHash(ctx, accountstore.CollUsers, id, hash); err != nil {
		h.Log.Error("register: store password failed", zap.String("account_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Log.Info("account registered", zap.String("account_id", id))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
