// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/authutil"
	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/app/system/ratelimit"
	"github.com/medinotify/portal/internal/app/system/timeouts"
)

type Handler struct {
	Accounts   *accountstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(accounts *accountstore.Store, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, SessionMgr: sessionMgr, Limiter: limiter, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleLogin handles POST /login.
//
// Failed lookups and wrong passwords return the same message, so the
// endpoint does not confirm which emails have accounts.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.Log.Warn("login rate limited",
			zap.String("ip", ratelimit.ClientIP(r)),
			zap.String("reason", reason))
		writeError(w, http.StatusTooManyRequests, "too many login attempts; try again later")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, _, err := h.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, accountstore.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.Log.Error("login: account lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if normalize.Status(acct.Status) == "disabled" {
		writeError(w, http.StatusForbidden, "account is disabled")
		return
	}
	if acct.PasswordHash == "" || !authutil.CheckPassword(req.Password, acct.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	user := auth.SessionUser{
		ID:    acct.ID,
		Name:  acct.DisplayName,
		Email: acct.Email,
		Role:  acct.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.Log.Error("login: session save failed", zap.String("account_id", acct.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Limiter.ResetEmail(email)
	h.Log.Info("user signed in", zap.String("account_id", acct.ID), zap.String("role", acct.Role))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:    acct.ID,
		Name:  acct.DisplayName,
		Email: acct.Email,
		Role:  acct.Role,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
