package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Hour})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request over limit allowed")
	}
	// Other clients are counted separately.
	if !rl.Allow("10.0.0.2") {
		t.Error("fresh client denied")
	}
}

func TestMiddlewareLimitsOnlyListedMethods(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	handler := rl.Middleware(func(r *http.Request) string { return "client" }, http.MethodPost)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	post := func() int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/expenses", nil))
		return rec.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first post = %d, want 200", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Fatalf("second post = %d, want 429", code)
	}

	// GET is not in the limited set and passes regardless.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expenses", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get = %d, want 200", rec.Code)
	}

	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}
