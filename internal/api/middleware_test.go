package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsWithinLimit(t *testing.T) {
	handler := RateLimitMiddleware(5)(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234"))

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	handler := RateLimitMiddleware(3)(okHandler())

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1234"))
	}

	// 4th request from another port of the same host
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5678"))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_KeysByHost(t *testing.T) {
	handler := RateLimitMiddleware(2)(okHandler())

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1234"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:1234"))
	if w.Code != http.StatusOK {
		t.Errorf("second host should not be rate-limited, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:1234"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("first host should be rate-limited, got %d", w.Code)
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	handler := AdminAuthMiddleware("secret")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
}

func TestAdminAuthMiddleware_OpenWithoutToken(t *testing.T) {
	handler := AdminAuthMiddleware("")(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when no admin token is configured, got %d", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	called := false
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if !called {
		t.Error("inner handler was not called")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
}
