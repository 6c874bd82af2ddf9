package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	"github.com/medinotify/portal/internal/app/features/authgoogle"
	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	"github.com/medinotify/portal/internal/app/store/oauthstate"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/testutil"
)

func setup(t *testing.T) (*oauthstate.Store, *authgoogle.Handler) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	accounts := accountstore.New(db)
	p := provision.New(accounts, settingsstore.New(db), notificationstore.New(db), auditstore.New(db),
		claims.Static{}, provision.DefaultRouting(), zap.NewNop())
	sm := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "medinotify_session", "", false, zap.NewNop())
	states := oauthstate.New(db)
	h := authgoogle.NewHandler(accounts, p, sm, states,
		"client-id", "client-secret", "https://portal.example.com", zap.NewNop())
	return states, h
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	_, h := setup(t)

	rec := httptest.NewRecorder()
	authgoogle.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") {
		t.Errorf("Location: got %q", loc)
	}
	if !strings.Contains(loc, "state=") {
		t.Errorf("no state parameter in %q", loc)
	}
}

func TestServeLogin_Unconfigured(t *testing.T) {
	_, h := setup(t)
	h.ClientID = ""
	h.ClientSecret = ""

	rec := httptest.NewRecorder()
	authgoogle.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "google_not_configured") {
		t.Errorf("Location: got %q", rec.Header().Get("Location"))
	}
}

func TestServeCallback_UnknownState(t *testing.T) {
	_, h := setup(t)

	rec := httptest.NewRecorder()
	authgoogle.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=bogus&code=x", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "invalid_state") {
		t.Errorf("Location: got %q", rec.Header().Get("Location"))
	}
}

func TestServeCallback_StateIsOneTimeUse(t *testing.T) {
	states, h := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := states.Save(ctx, "state-1", "/results", time.Now().UTC().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, valid, err := states.Validate(ctx, "state-1"); err != nil || !valid {
		t.Fatalf("first Validate: valid=%v err=%v", valid, err)
	}

	// The state was consumed, so a replayed callback is rejected before any
	// token exchange happens.
	rec := httptest.NewRecorder()
	authgoogle.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/callback?state=state-1&code=x", nil))
	if !strings.Contains(rec.Header().Get("Location"), "invalid_state") {
		t.Errorf("Location: got %q", rec.Header().Get("Location"))
	}
}

func TestServeCallback_ProviderDenied(t *testing.T) {
	_, h := setup(t)

	rec := httptest.NewRecorder()
	authgoogle.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/callback?error=access_denied", nil))
	if !strings.Contains(rec.Header().Get("Location"), "google_denied") {
		t.Errorf("Location: got %q", rec.Header().Get("Location"))
	}
}
