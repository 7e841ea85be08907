package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

func serveMe(s *Sessions, cookies ...*http.Cookie) (*httptest.ResponseRecorder, models.SessionUser) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Middleware(http.HandlerFunc(Me)).ServeHTTP(rec, req)

	var body models.SessionUser
	json.NewDecoder(rec.Body).Decode(&body)
	return rec, body
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestMiddlewareMintsAndReusesIdentity(t *testing.T) {
	s := NewSessions([]byte("test-secret"), false, false)

	rec, first := serveMe(s)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if first.UserID == "" || first.UserID == models.LocalUser {
		t.Fatalf("minted id = %q", first.UserID)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", cookie)
	}

	rec, second := serveMe(s, cookie)
	if second.UserID != first.UserID {
		t.Errorf("returning visitor got %q, want %q", second.UserID, first.UserID)
	}
	if sessionCookie(rec) != nil {
		t.Error("valid cookie should not be reissued")
	}
}

func TestMiddlewareRejectsForgedCookie(t *testing.T) {
	issuer := NewSessions([]byte("other-secret"), false, false)
	token, err := issuer.Sign("attacker")
	if err != nil {
		t.Fatal(err)
	}

	s := NewSessions([]byte("test-secret"), false, false)
	rec, body := serveMe(s, &http.Cookie{Name: CookieName, Value: token})
	if body.UserID == "attacker" {
		t.Fatal("forged cookie accepted")
	}
	if sessionCookie(rec) == nil {
		t.Error("expected a fresh cookie after rejecting a forged one")
	}
}

func TestVerifyExpired(t *testing.T) {
	s := NewSessions([]byte("test-secret"), false, false)
	s.now = func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }
	token, err := s.Sign("u1")
	if err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := s.Verify(token); err == nil {
		t.Error("expected expired token to fail verification")
	}
}

func TestWithTTLSetsCookieExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions([]byte("test-secret"), false, false).WithTTL(48 * time.Hour)
	s.now = func() time.Time { return now }

	rec, _ := serveMe(s)
	c := sessionCookie(rec)
	if c == nil {
		t.Fatal("expected a session cookie")
	}
	if !c.Expires.Equal(now.Add(48 * time.Hour)) {
		t.Errorf("expires = %v", c.Expires)
	}

	s.now = func() time.Time { return now.Add(72 * time.Hour) }
	if _, err := s.Verify(c.Value); err == nil {
		t.Error("expected token past its ttl to fail verification")
	}
}

func TestSingleUserMode(t *testing.T) {
	s := NewSessions([]byte("test-secret"), true, false)
	rec, body := serveMe(s)
	if body.UserID != models.LocalUser {
		t.Errorf("user = %q, want %q", body.UserID, models.LocalUser)
	}
	if sessionCookie(rec) != nil {
		t.Error("single-user mode should not set cookies")
	}
}

func TestMeWithoutMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	Me(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
