package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubLimiter struct {
	allow bool
	retry time.Duration
	err   error
}

func (s stubLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return s.allow, s.retry, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveLimited(t *testing.T, rl *RateLimiter) *httptest.ResponseRecorder {
	t.Helper()
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/verify/request", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterFailOpenOnBackendError(t *testing.T) {
	rl := NewRateLimiter(stubLimiter{err: errors.New("redis down")}, 10, time.Minute, FailOpen, testLogger())
	if rec := serveLimited(t, rl); rec.Code != http.StatusOK {
		t.Fatalf("fail-open must allow request, got %d", rec.Code)
	}
}

func TestRateLimiterFailClosedOnBackendError(t *testing.T) {
	rl := NewRateLimiter(stubLimiter{err: errors.New("redis down")}, 10, time.Minute, FailClosed, testLogger())
	rec := serveLimited(t, rl)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fail-closed must reject request, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimiterDeniedSetsRetryAfter(t *testing.T) {
	rl := NewRateLimiter(stubLimiter{allow: false, retry: 5 * time.Second}, 1, time.Minute, FailClosed, testLogger())
	rec := serveLimited(t, rl)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("Retry-After = %q", got)
	}
}

func TestLocalFixedWindowLimiter(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "ip", 3, time.Minute)
		if err != nil || !allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i, allowed, err)
		}
	}
	allowed, retryAfter, err := limiter.Allow(ctx, "ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("fourth request in window must be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("retryAfter = %v", retryAfter)
	}

	// Other keys are unaffected.
	if allowed, _, _ := limiter.Allow(ctx, "other-ip", 3, time.Minute); !allowed {
		t.Fatal("separate key must have its own window")
	}
}
