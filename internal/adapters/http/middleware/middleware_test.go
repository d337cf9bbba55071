package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRateLimiter_RefillsAfterInterval verifies the bucket empties and refills.
func TestRateLimiter_RefillsAfterInterval(t *testing.T) {
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second, nil)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other visitors have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Error("bucket should refill after the interval")
	}
}

// TestRateLimit_UsesHostWithoutPort verifies requests from one host share a bucket across ports.
func TestRateLimit_UsesHostWithoutPort(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour, nil)
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, addr := range []string{"10.0.0.1:5000", "10.0.0.1:5001"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		want := http.StatusOK
		if i == 1 {
			want = http.StatusTooManyRequests
		}
		if rr.Code != want {
			t.Errorf("request %d status = %d, want %d", i, rr.Code, want)
		}
	}
}

// TestSecurityHeaders verifies the hardening headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

// TestCSRF_RejectsFormWithoutToken verifies form posts need a token while JSON is exempt.
func TestCSRF_RejectsFormWithoutToken(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	called := 0
	h := CSRF(key, CSRFOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called++ }))

	form := httptest.NewRequest("POST", "/registro", strings.NewReader("nombre=Ana"))
	form.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, form)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form status = %d, want 403", rr.Code)
	}

	js := httptest.NewRequest("POST", "/asistencia", strings.NewReader(`{"cedula":"1"}`))
	js.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, js)
	if rr.Code != http.StatusOK || called != 1 {
		t.Errorf("json status = %d, called = %d", rr.Code, called)
	}
}

// TestAdminGate covers the disabled gate, redirects and valid sessions.
func TestAdminGate(t *testing.T) {
	sessions := NewSessionStore()
	token, err := sessions.Create()
	if err != nil {
		t.Fatal(err)
	}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusTeapot)
		}
	})

	tests := []struct {
		name    string
		enabled bool
		cookie  string
		want    int
	}{
		{"disabled passes without a session", false, "", http.StatusTeapot},
		{"no cookie redirects", true, "", http.StatusSeeOther},
		{"bad cookie redirects", true, "nope", http.StatusSeeOther},
		{"valid session", true, token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AdminGate(sessions, tt.enabled, "/panel/login")(inner)
			req := httptest.NewRequest("GET", "/panel/personas", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if rr.Code == http.StatusSeeOther && rr.Header().Get("Location") != "/panel/login" {
				t.Errorf("Location = %q", rr.Header().Get("Location"))
			}
		})
	}
}

// TestSessionStore_Expires verifies sessions end after SessionTTL.
func TestSessionStore_Expires(t *testing.T) {
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	ss := NewSessionStore()
	ss.now = func() time.Time { return now }

	token, _ := ss.Create()
	if _, ok := ss.Get(token); !ok {
		t.Fatal("fresh session should be valid")
	}
	now = now.Add(SessionTTL + time.Second)
	if _, ok := ss.Get(token); ok {
		t.Error("expired session should be rejected")
	}
	ss.Delete(token)
}
