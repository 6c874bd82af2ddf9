package hooks_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	"github.com/medinotify/portal/internal/app/features/hooks"
	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/indexes"
	"github.com/medinotify/portal/internal/testutil"
)

const testSecret = "hook-secret"

func setup(t *testing.T) (*hooks.Handler, *accountstore.Store, *notificationstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	accounts := accountstore.New(db)
	notifications := notificationstore.New(db)
	p := provision.New(
		accounts,
		settingsstore.New(db),
		notifications,
		auditstore.New(db),
		claims.Static{Roles: map[string]string{"uid-admin": "admin"}},
		provision.DefaultRouting(),
		zap.NewNop(),
	)
	return hooks.NewHandler(p, testSecret, zap.NewNop()), accounts, notifications
}

func post(h *hooks.Handler, path, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(hooks.SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	hooks.Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestHooks_BadSecret(t *testing.T) {
	h, _, _ := setup(t)

	rec := post(h, "/account-created", "wrong", `{"id":"uid-1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	rec = post(h, "/account-created", "", `{"id":"uid-1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing secret, got %d", rec.Code)
	}
}

func TestHooks_AccountCreated(t *testing.T) {
	h, accounts, _ := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := post(h, "/account-created", testSecret,
		`{"id":"uid-admin","email":"admin@example.com","displayName":"Admin"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	if _, err := accounts.GetByID(ctx, accountstore.CollAdmins, "uid-admin"); err != nil {
		t.Errorf("account not provisioned into admins: %v", err)
	}
}

func TestHooks_AccountCreated_MissingID(t *testing.T) {
	h, _, _ := setup(t)

	rec := post(h, "/account-created", testSecret, `{"email":"x@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHooks_AccountCreated_BadJSON(t *testing.T) {
	h, _, _ := setup(t)

	rec := post(h, "/account-created", testSecret, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHooks_ResultCreated(t *testing.T) {
	h, _, notifications := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := post(h, "/result-created", testSecret, `{"patientId":"uid-1","testName":"CBC"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	list, err := notifications.ListByRecipient(ctx, "uid-1", 0)
	if err != nil {
		t.Fatalf("ListByRecipient failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list))
	}
	if list[0].Message != "CBC result has been uploaded." {
		t.Errorf("Message: got %q", list[0].Message)
	}
}

func TestHooks_ResultCreated_Validation(t *testing.T) {
	h, _, _ := setup(t)

	for _, body := range []string{
		`{"testName":"CBC"}`,
		`{"patientId":"uid-1"}`,
		`{}`,
	} {
		rec := post(h, "/result-created", testSecret, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}
