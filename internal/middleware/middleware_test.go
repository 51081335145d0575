package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/personalizer/internal/config"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := Logging(logger)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "rid-123" || fields["path"] != "/healthz" || fields["status"] != int64(200) {
		t.Fatalf("unexpected log fields: %v", fields)
	}

	// ensure errors are propagated and logged
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = Logging(logger)(func(c echo.Context) error {
		return expected
	})(c)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}

	entries = logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected second log entry, got %d", len(entries))
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["request_id"] != "rid-456" {
		t.Fatalf("expected error entry with new request id, got %+v", entries[1])
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 1, Interval: time.Second}
	mw := RateLimiter("/api/personalize", cfg)

	e := echo.New()
	nextCalls := 0
	next := func(c echo.Context) error {
		nextCalls++
		return c.NoContent(http.StatusOK)
	}

	serve := func(mw echo.MiddlewareFunc, method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath(path)
		_ = mw(next)(c)
		return rec.Code
	}

	if code := serve(mw, http.MethodPost, "/api/personalize"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/personalize", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/personalize")
	_ = mw(next)(c)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After of 1s, got %q", rec.Header().Get("Retry-After"))
	}
	if code := serve(mw, http.MethodOptions, "/api/personalize"); code != http.StatusOK {
		t.Fatalf("expected preflight to bypass limiter, got %d", code)
	}
	if code := serve(mw, http.MethodGet, "/api/test"); code != http.StatusOK {
		t.Fatalf("expected other routes to bypass limiter, got %d", code)
	}

	// zero config should behave as passthrough
	disabled := RateLimiter("/api/personalize", config.RateLimitConfig{})
	for i := 0; i < 3; i++ {
		if code := serve(disabled, http.MethodPost, "/api/personalize"); code != http.StatusOK {
			t.Fatalf("expected passthrough when limiter disabled")
		}
	}
	if nextCalls != 6 {
		t.Fatalf("expected next handler to run 6 times, got %d", nextCalls)
	}
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS([]string{"https://studio.framer.com", "http://localhost:3000"}))
	e.POST("/api/personalize", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/personalize", nil)
	req.Header.Set(echo.HeaderOrigin, "https://studio.framer.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("expected preflight success, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://studio.framer.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/personalize", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("expected no allow origin for unknown origin, got %q", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	t.Run("reuse incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, "incoming")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected request id to be stored")
			}
			if RequestIDFrom(c.Request().Context()) != "incoming" {
				t.Fatalf("expected request id on the request context")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get(echo.HeaderXRequestID) != "incoming" {
			t.Fatalf("expected response header to propagate request id")
		}
	})

	t.Run("generate when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) == "" {
				t.Fatalf("expected generated request id")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Fatalf("expected response header set")
		}
	})
	t.Run("replace oversized header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRequestID, strings.Repeat("x", maxRequestIDLength+1))
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := rec.Header().Get(echo.HeaderXRequestID); len(got) > maxRequestIDLength || got == "" {
			t.Fatalf("expected generated request id, got %q", got)
		}
	})
}

func TestLoggerTagsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	Logger(WithRequestID(context.Background(), "rid-789")).Info("hello")
	Logger(context.Background()).Info("bare")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "rid-789" {
		t.Fatalf("expected tagged entry, got %v", entries[0].ContextMap())
	}
	if _, ok := entries[1].ContextMap()["request_id"]; ok {
		t.Fatalf("expected untagged entry")
	}
}
