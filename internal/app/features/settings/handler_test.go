package settings_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/features/settings"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := settings.NewHandler(settingsstore.New(db), zap.NewNop())
	user := auth.SessionUser{ID: "uid-1", Role: "patient"}
	return auth.WithTestUser(user)(settings.Routes(h))
}

func TestServeSettings_Defaults(t *testing.T) {
	router := setup(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var s models.UserSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !s.Notifications || s.Language != models.DefaultLanguage || s.Theme != models.DefaultTheme {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestHandleUpdate_RoundTrip(t *testing.T) {
	router := setup(t)

	body := `{"notifications":false,"language":"fil","theme":"dark","darkMode":true,"emailAlerts":false}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	var s models.UserSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if s.Notifications || s.Language != "fil" || s.Theme != "dark" || !s.DarkMode {
		t.Errorf("update not persisted: %+v", s)
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	router := setup(t)

	for _, body := range []string{
		`{"language":"","theme":"dark"}`,
		`{"language":"en","theme":"solarized"}`,
		`{bad json`,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("PUT", "/", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}
