package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mario928/life-context-api/internal/api/middleware"
	"github.com/Mario928/life-context-api/internal/auth"
	"github.com/Mario928/life-context-api/internal/db"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestLoginIssuesSession(t *testing.T) {
	d := newTestDB(t)
	if err := d.EnsureAdmin("alice", "hunter2"); err != nil {
		t.Fatal(err)
	}
	h := NewAuthHandler(d, auth.NewJWTService("test-secret"))

	req := httptest.NewRequest("POST", "/api/auth/login",
		strings.NewReader(`{"username":"alice","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var session sessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if session.Token == "" {
		t.Error("login response missing token")
	}
	if session.MemberID != "alice" {
		t.Errorf("member_id = %q, want the username", session.MemberID)
	}
	if session.Role != "admin" {
		t.Errorf("role = %q, want admin", session.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	d := newTestDB(t)
	if err := d.EnsureAdmin("alice", "hunter2"); err != nil {
		t.Fatal(err)
	}
	h := NewAuthHandler(d, auth.NewJWTService("test-secret"))

	for name, body := range map[string]string{
		"wrong password":   `{"username":"alice","password":"nope"}`,
		"unknown username": `{"username":"mallory","password":"hunter2"}`,
	} {
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestMeResolvesTokenToSession(t *testing.T) {
	d := newTestDB(t)
	if err := d.EnsureAdmin("alice", "hunter2"); err != nil {
		t.Fatal(err)
	}
	jwtSvc := auth.NewJWTService("test-secret")
	h := NewAuthHandler(d, jwtSvc)

	user, err := d.GetUserByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	token, err := jwtSvc.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatal(err)
	}

	protected := middleware.AuthMiddleware(jwtSvc)(http.HandlerFunc(h.Me))
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var session sessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if session.Token != "" {
		t.Error("me response must not mint a new token")
	}
	if session.MemberID != "alice" || session.UserID != user.ID {
		t.Errorf("session = %+v, want alice/%d", session, user.ID)
	}

	// No token, no session.
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest("GET", "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}
}
