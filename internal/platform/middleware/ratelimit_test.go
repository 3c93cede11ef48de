package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospital/backoffice/internal/platform/auth"
)

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5}

	e := echo.New()
	handler := RateLimit(cfg)(okHandler)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}

	e := echo.New()
	handler := RateLimit(cfg)(okHandler)

	if err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())); err != nil {
		t.Fatalf("first request: %v", err)
	}

	rec := httptest.NewRecorder()
	err := handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}

	retryVal, parseErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if parseErr != nil || retryVal < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerEmployeeIsolation(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}

	e := echo.New()
	handler := RateLimit(cfg)(okHandler)

	request := func(employeeID uuid.UUID) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), employeeID, nil))
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	a, b := uuid.New(), uuid.New()
	if err := request(a); err != nil {
		t.Fatalf("employee a first request: %v", err)
	}
	if err := request(a); err == nil {
		t.Fatal("employee a second request: expected rate limit error")
	}
	if err := request(b); err != nil {
		t.Fatalf("employee b first request: expected separate bucket, got %v", err)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 || cfg.BurstSize != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTokenBucket_ZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	if ok, _ := b.take(); !ok {
		t.Fatal("expected first token")
	}
	ok, retry := b.take()
	if ok {
		t.Fatal("expected bucket to be empty")
	}
	if retry != 1 {
		t.Errorf("expected retry 1 for zero rate, got %d", retry)
	}
}
