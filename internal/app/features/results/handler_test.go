package results_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/claims"
	"github.com/medinotify/portal/internal/app/features/results"
	"github.com/medinotify/portal/internal/app/provision"
	accountstore "github.com/medinotify/portal/internal/app/store/accounts"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	auditstore "github.com/medinotify/portal/internal/app/store/provisionaudit"
	resultstore "github.com/medinotify/portal/internal/app/store/results"
	settingsstore "github.com/medinotify/portal/internal/app/store/usersettings"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

type fixture struct {
	accounts      *accountstore.Store
	results       *resultstore.Store
	notifications *notificationstore.Store
	handler       *results.Handler
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)

	accounts := accountstore.New(db)
	notifications := notificationstore.New(db)
	p := provision.New(accounts, settingsstore.New(db), notifications, auditstore.New(db),
		claims.Static{}, provision.DefaultRouting(), zap.NewNop())
	rs := resultstore.New(db)
	h := results.NewHandler(rs, accounts, results.DirectNotifier{Provisioner: p}, zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := accounts.Upsert(ctx, accountstore.CollUsers, testutil.PatientAccount("uid-p")); err != nil {
		t.Fatalf("seed patient failed: %v", err)
	}

	return fixture{accounts: accounts, results: rs, notifications: notifications, handler: h}
}

func asUser(h *results.Handler, u auth.SessionUser) http.Handler {
	return auth.WithTestUser(u)(results.Routes(h))
}

var (
	patient = auth.SessionUser{ID: "uid-p", Role: models.RolePatient}
	medtech = auth.SessionUser{ID: "uid-mt", Role: models.RoleMedicalTechnologist}
)

func TestHandleUpload_NotifiesPatient(t *testing.T) {
	f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	body := `{"patientId":"uid-p","testName":"CBC","remarks":"Normal values"}`
	rec := httptest.NewRecorder()
	asUser(f.handler, medtech).ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var saved models.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if saved.UploadedBy != "uid-mt" {
		t.Errorf("UploadedBy: got %q, want %q", saved.UploadedBy, "uid-mt")
	}

	list, err := f.notifications.ListByRecipient(ctx, "uid-p", 0)
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

func TestHandleUpload_SanitizesRemarks(t *testing.T) {
	f := setup(t)

	body := `{"patientId":"uid-p","testName":"CBC","remarks":"ok<script>alert(1)</script>"}`
	rec := httptest.NewRecorder()
	asUser(f.handler, medtech).ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var saved models.Result
	_ = json.Unmarshal(rec.Body.Bytes(), &saved)
	if strings.Contains(saved.Remarks, "<script>") {
		t.Errorf("remarks not sanitized: %q", saved.Remarks)
	}
	if !strings.Contains(saved.Remarks, "ok") {
		t.Errorf("benign text removed: %q", saved.Remarks)
	}
}

func TestHandleUpload_UnknownPatient(t *testing.T) {
	f := setup(t)

	body := `{"patientId":"uid-ghost","testName":"CBC"}`
	rec := httptest.NewRecorder()
	asUser(f.handler, medtech).ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleUpload_PatientForbidden(t *testing.T) {
	f := setup(t)

	body := `{"patientId":"uid-p","testName":"CBC"}`
	rec := httptest.NewRecorder()
	asUser(f.handler, patient).ServeHTTP(rec, httptest.NewRequest("POST", "/", strings.NewReader(body)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestServeMine_OwnResultsOnly(t *testing.T) {
	f := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := f.results.Create(ctx, testutil.ResultFixture("uid-p", "CBC")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.results.Create(ctx, testutil.ResultFixture("uid-other", "Urinalysis")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(f.handler, patient).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Results []models.Result `json:"results"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].TestName != "CBC" {
		t.Errorf("TestName: got %q", resp.Results[0].TestName)
	}
}

func TestServeAll_StaffOnly(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	asUser(f.handler, patient).ServeHTTP(rec, httptest.NewRequest("GET", "/all", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient: expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	asUser(f.handler, medtech).ServeHTTP(rec, httptest.NewRequest("GET", "/all", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("medtech: expected 200, got %d", rec.Code)
	}
}
