package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied under the limit", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("request over the limit allowed")
	}
	// Other clients are unaffected.
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("separate client denied")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("a") {
		t.Fatalf("first request denied")
	}
	if rl.Allow("a") {
		t.Fatalf("second request allowed inside window")
	}
	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatalf("request denied after window reset")
	}
}

func TestRetryAfterTracksOldestRequest(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	if !rl.Allow("c") {
		t.Fatalf("first request denied")
	}
	if rl.Allow("c") {
		t.Fatalf("second request allowed inside window")
	}
	if ra := rl.RetryAfter("c"); ra < 3500 || ra > 3601 {
		t.Fatalf("retry-after = %ds, want about an hour", ra)
	}
}

func TestDeniedRequestsDoNotExtendWindow(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	if !rl.Allow("c") {
		t.Fatalf("first request denied")
	}
	for i := 0; i < 10; i++ {
		rl.Allow("c")
	}
	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("c") {
		t.Fatalf("denied requests extended the window")
	}
}

func TestClientKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	if got := clientKey(req); got != "10.0.0.5" {
		t.Fatalf("client key = %q, want bare remote host", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.9" {
		t.Fatalf("client key = %q, want first forwarded hop", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/1", nil)
	req.RemoteAddr = "10.0.0.5:1234"

	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 without Retry-After header")
	}
}
