package notifications_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/medinotify/portal/internal/app/features/notifications"
	notificationstore "github.com/medinotify/portal/internal/app/store/notifications"
	"github.com/medinotify/portal/internal/app/system/auth"
	"github.com/medinotify/portal/internal/domain/models"
	"github.com/medinotify/portal/internal/testutil"
)

func setup(t *testing.T) (*notificationstore.Store, http.Handler) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	h := notifications.NewHandler(store, zap.NewNop())

	user := auth.SessionUser{ID: "uid-1", Name: "Patient", Email: "p@example.com", Role: "patient"}
	return store, auth.WithTestUser(user)(notifications.Routes(h))
}

func TestServeList(t *testing.T) {
	store, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, msg := range []string{"one", "two"} {
		if _, err := store.Insert(ctx, models.Notification{
			UserID: "uid-1", Message: msg, Type: models.NotificationTypeSystem,
		}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	// Someone else's notification must not appear.
	if _, err := store.Insert(ctx, models.Notification{
		UserID: "uid-other", Message: "private", Type: models.NotificationTypeSystem,
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(resp.Notifications))
	}
	if resp.Notifications[0].Message != "two" {
		t.Errorf("newest first: got %q", resp.Notifications[0].Message)
	}
}

func TestServeUnreadCount_And_MarkRead(t *testing.T) {
	store, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Insert(ctx, models.Notification{
		UserID: "uid-1", Message: "hello", Type: models.NotificationTypeResult,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/unread-count", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var count struct {
		Unread int64 `json:"unread"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &count)
	if count.Unread != 1 {
		t.Errorf("unread: got %d, want 1", count.Unread)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/"+n.ID.Hex()+"/read", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/unread-count", nil))
	_ = json.Unmarshal(rec.Body.Bytes(), &count)
	if count.Unread != 0 {
		t.Errorf("unread after mark read: got %d, want 0", count.Unread)
	}
}

func TestHandleMarkUnread_RoundTrip(t *testing.T) {
	store, router := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Insert(ctx, models.Notification{
		UserID: "uid-1", Message: "hello", Type: models.NotificationTypeResult,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/"+n.ID.Hex()+"/read", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/"+n.ID.Hex()+"/unread", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("mark unread: expected 200, got %d", rec.Code)
	}

	count, err := store.CountUnread(ctx, "uid-1")
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if count != 1 {
		t.Errorf("unread after round trip: got %d, want 1", count)
	}
}

func TestHandleMarkRead_BadID(t *testing.T) {
	_, router := setup(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/not-a-hex-id/read", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRequiresSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := notifications.NewHandler(notificationstore.New(db), zap.NewNop())
	router := notifications.Routes(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
