// Package authgoogle implements "Sign in with Google". First-time Google
// users are provisioned through the same account-created pipeline as every
// other registration, so they land in the right role collection with
// default settings and a welcome notification.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	"github.com/medinotify/portal/internal/app/store/oauthstate"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/app/system/normalize"
	"github.com/medinotify/portal/internal/app/system/timeouts"
	"github.com/medinotify/portal/internal/domain/models"
)

const stateTTL = 10 * time.Minute

type Handler struct {
	Accounts    *accountstore.Store
	Provisioner *provision.Provisioner
	SessionMgr  *auth.SessionManager
	StateStore  *oauthstate.Store
	Log         *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewHandler(
	accounts *accountstore.Store,
	provisioner *provision.Provisioner,
	sessionMgr *auth.SessionManager,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:     accounts,
		Provisioner:  provisioner,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether a Google client id and secret are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: redirect to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		redirectWithError(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("generate OAuth state failed", zap.Error(err))
		redirectWithError(w, r, "internal")
		return
	}

	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("save OAuth state failed", zap.Error(err))
		redirectWithError(w, r, "internal")
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validate state, exchange
// the code, find or provision the account, and sign in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth denied",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		redirectWithError(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		redirectWithError(w, r, "invalid_state")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		h.Log.Error("validate OAuth state failed", zap.Error(err))
		redirectWithError(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		redirectWithError(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		redirectWithError(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(r.Context(), code)
	if err != nil {
		h.Log.Error("exchange OAuth code failed", zap.Error(err))
		redirectWithError(w, r, "token_exchange")
		return
	}

	gu, err := fetchGoogleUserInfo(r.Context(), token)
	if err != nil {
		h.Log.Error("fetch Google user info failed", zap.Error(err))
		redirectWithError(w, r, "user_info")
		return
	}
	if gu.Email == "" {
		redirectWithError(w, r, "user_info")
		return
	}

	acct, err := h.findOrProvision(ctx, gu)
	if errors.Is(err, errAccountDisabled) {
		redirectWithError(w, r, "account_disabled")
		return
	}
	if err != nil {
		h.Log.Error("Google sign-in: account resolution failed",
			zap.String("email", gu.Email), zap.Error(err))
		redirectWithError(w, r, "internal")
		return
	}

	su := auth.SessionUser{ID: acct.ID, Name: acct.DisplayName, Email: acct.Email, Role: acct.Role}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.String("account_id", acct.ID), zap.Error(err))
		redirectWithError(w, r, "session")
		return
	}

	h.Log.Info("signed in via Google",
		zap.String("account_id", acct.ID),
		zap.String("role", acct.Role))
	http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
}

var errAccountDisabled = errors.New("account disabled")

// findOrProvision resolves a Google identity to a directory record. Unknown
// emails get a new account provisioned with the Google subject as its id.
func (h *Handler) findOrProvision(ctx context.Context, gu *googleUserInfo) (*models.Account, error) {
	email := normalize.Email(gu.Email)

	acct, _, err := h.Accounts.FindByEmail(ctx, email)
	if err == nil {
		if normalize.Status(acct.Status) == models.StatusDisabled {
			return nil, errAccountDisabled
		}
		return acct, nil
	}
	if !errors.Is(err, accountstore.ErrNotFound) {
		return nil, err
	}

	evt := provision.AccountCreated{
		ID:          "google:" + gu.ID,
		Email:       email,
		DisplayName: gu.Name,
		AuthMethod:  "google",
	}
	if err := h.Provisioner.HandleAccountCreated(ctx, evt); err != nil {
		return nil, fmt.Errorf("provision google account: %w", err)
	}

	acct, _, err = h.Accounts.FindByID(ctx, evt.ID)
	if err != nil {
		return nil, fmt.Errorf("load provisioned account: %w", err)
	}
	return acct, nil
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// safeReturn only honors same-origin relative paths; anything else falls
// back to the portal home.
func safeReturn(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || raw[0] != '/' {
		return "/"
	}
	return raw
}

func redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}
