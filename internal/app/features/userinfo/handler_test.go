package userinfo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medinotify/portal/internal/app/features/userinfo"
	"github.com/medinotify/portal/internal/app/system/auth"
)

func TestServeUserInfo_Anonymous(t *testing.T) {
	router := userinfo.Routes(userinfo.NewHandler())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		Role            string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.IsAuthenticated {
		t.Error("expected isAuthenticated false")
	}
}

func TestServeUserInfo_SignedIn(t *testing.T) {
	user := auth.SessionUser{ID: "uid-1", Name: "Pat", Email: "pat@example.com", Role: "patient"}
	router := auth.WithTestUser(user)(userinfo.Routes(userinfo.NewHandler()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	var resp struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		ID              string `json:"id"`
		Role            string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !resp.IsAuthenticated || resp.ID != "uid-1" || resp.Role != "patient" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
