package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret-test-secret-test-secret", time.Hour, false)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("", time.Hour, false); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)
	token, err := m.Sign(7, "001", "Ayşe Yılmaz", "CHEF")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	c, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.UserID != 7 || c.SicilNo != "001" || c.Role != "CHEF" || c.FullName != "Ayşe Yılmaz" {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	m := newTestManager(t)
	other, _ := NewManager("another-secret-another-secret-xx", time.Hour, false)
	token, _ := other.Sign(1, "001", "A", "ADMIN")
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := newTestManager(t)
	past := time.Now().Add(-3 * time.Hour)
	m.now = func() time.Time { return past }
	token, _ := m.Sign(1, "001", "A", "ADMIN")
	m.now = time.Now
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	m := newTestManager(t)
	protected := m.Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFromContext(r.Context())
		w.Write([]byte(c.SicilNo))
	})))

	// API without session -> 401
	rr := httptest.NewRecorder()
	protected.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/personnel", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}

	// Browser navigation without session -> redirect
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Accept", "text/html")
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login got %d %q", rr.Code, rr.Header().Get("Location"))
	}

	// Valid cookie -> passes through
	rec := httptest.NewRecorder()
	if _, err := m.CreateSession(rec, 3, "042", "B", "ADMIN"); err != nil {
		t.Fatalf("create session: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/personnel", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "042" {
		t.Fatalf("expected 200 with sicil, got %d %q", rr.Code, rr.Body.String())
	}

	// Tampered cookie -> 401
	req = httptest.NewRequest(http.MethodGet, "/api/personnel", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc.def.ghi"})
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered cookie got %d", rr.Code)
	}
}

func TestBearerHeader(t *testing.T) {
	m := newTestManager(t)
	token, _ := m.Sign(9, "900", "C", "CHEF")
	req := httptest.NewRequest(http.MethodGet, "/api/attendance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c, ok := m.ParseSession(req)
	if !ok || c.UserID != 9 {
		t.Fatalf("expected bearer session, got %v %v", c, ok)
	}
}
