package directory_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	"github.com/medinotify/portal/internal/app/features/directory"
	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

type fixture struct {
	accounts    *accountstore.Store
	audit       *auditstore.Store
	provisioner *provision.Provisioner
	handler     *directory.Handler
}

func setup(t *testing.T, source claims.RoleSource) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	accounts := accountstore.New(db)
	audit := auditstore.New(db)
	p := provision.New(accounts, settingsstore.New(db), notificationstore.New(db), audit,
		source, provision.DefaultRouting(), zap.NewNop())
	h := directory.NewHandler(accounts, audit, zap.NewNop())
	return fixture{accounts: accounts, audit: audit, provisioner: p, handler: h}
}

func asUser(h *directory.Handler, u auth.SessionUser) http.Handler {
	return auth.WithTestUser(u)(directory.Routes(h))
}

var (
	admin   = auth.SessionUser{ID: "uid-a", Role: models.RoleAdmin}
	patient = auth.SessionUser{ID: "uid-p", Role: models.RolePatient}
)

func TestServeSummary_CountsPerCollection(t *testing.T) {
	f := setup(t, claims.Static{Roles: map[string]string{"uid-1": models.RolePathologist}})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := f.provisioner.HandleAccountCreated(ctx, provision.AccountCreated{ID: "uid-1", Email: "path@example.com", DisplayName: "Path One"}); err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if err := f.provisioner.HandleAccountCreated(ctx, provision.AccountCreated{ID: "uid-2", Email: "pat@example.com", DisplayName: "Pat Two"}); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Counts map[string]int64 `json:"counts"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Counts[accountstore.CollPathologists] != 1 {
		t.Errorf("pathologists: got %d, want 1", resp.Counts[accountstore.CollPathologists])
	}
	if resp.Counts[accountstore.CollUsers] != 1 {
		t.Errorf("users: got %d, want 1", resp.Counts[accountstore.CollUsers])
	}
}

func TestServeCollection(t *testing.T) {
	f := setup(t, claims.Static{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := f.accounts.Upsert(ctx, accountstore.CollAdmins, testutil.StaffAccount("uid-adm", models.RoleAdmin)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("GET", "/admins", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Accounts []models.Account `json:"accounts"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Accounts) != 1 || resp.Accounts[0].ID != "uid-adm" {
		t.Errorf("unexpected accounts: %+v", resp.Accounts)
	}

	rec = httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("GET", "/receptionists", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown collection: expected 404, got %d", rec.Code)
	}
}

func TestServeAudit_DefaultedFilter(t *testing.T) {
	f := setup(t, claims.Failing{Err: errors.New("claims provider unreachable")})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := f.provisioner.HandleAccountCreated(ctx, provision.AccountCreated{ID: "uid-x", Email: "x@example.com", DisplayName: "X"}); err != nil {
		t.Fatalf("provision failed: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("GET", "/audit?defaulted=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Entries []models.ProvisionAudit `json:"entries"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Entries) != 1 {
		t.Fatalf("expected 1 defaulted entry, got %d", len(resp.Entries))
	}
	if !resp.Entries[0].Defaulted {
		t.Error("entry not marked defaulted")
	}
}

func TestHandleSetStatus(t *testing.T) {
	f := setup(t, claims.Static{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := f.accounts.Upsert(ctx, accountstore.CollUsers, testutil.PatientAccount("uid-p1")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("POST", "/users/uid-p1/status", strings.NewReader(`{"status":"disabled"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := f.accounts.GetByID(ctx, accountstore.CollUsers, "uid-p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.StatusDisabled {
		t.Errorf("Status: got %q, want %q", got.Status, models.StatusDisabled)
	}

	rec = httptest.NewRecorder()
	asUser(f.handler, admin).ServeHTTP(rec, httptest.NewRequest("POST", "/users/uid-p1/status", strings.NewReader(`{"status":"frozen"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: expected 400, got %d", rec.Code)
	}
}

func TestRoutes_AdminOnly(t *testing.T) {
	f := setup(t, claims.Static{})

	rec := httptest.NewRecorder()
	asUser(f.handler, patient).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
