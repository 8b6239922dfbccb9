package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/searchlang/internal/config"
	logpkg "github.com/kailas-cloud/searchlang/internal/logger"
)

func TestJSONRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := jsonRecoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/parser/parse", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Success  bool     `json:"success"`
		Messages []string `json:"messages"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || len(body.Messages) != 1 {
		t.Errorf("body = %+v", body)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic was not logged")
	}
}

func TestWideEventMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var ctxLoggerSet bool
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(zap.New(core)))
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		logpkg.FromContext(req.Context()).Info("inner")
		ctxLoggerSet = true
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if !ctxLoggerSet || logs.FilterMessage("inner").Len() != 1 {
		t.Error("request logger not propagated")
	}

	lines := logs.FilterMessage("http_request").All()
	if len(lines) != 1 {
		t.Fatalf("http_request lines = %d", len(lines))
	}
	fields := lines[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", fields["status"])
	}
	if fields["request_id"] == "" {
		t.Error("request_id missing from canonical line")
	}
}

func TestRetryConfig(t *testing.T) {
	rc := retryConfig(configRetry())
	if rc.MaxAttempts != 4 || rc.InitialDelay.Milliseconds() != 50 || rc.MaxDelay.Milliseconds() != 900 {
		t.Errorf("retry config = %+v", rc)
	}
}

func TestNewCacheStore(t *testing.T) {
	s, err := newCacheStore(cacheConfig("memory"))
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	s.Close()

	if _, err := newCacheStore(cacheConfig("memcached")); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func configRetry() config.RetryConfig {
	return config.RetryConfig{MaxAttempts: 4, InitialDelayMs: 50, MaxDelayMs: 900, Multiplier: 2}
}

func cacheConfig(driver string) config.CacheConfig {
	return config.CacheConfig{Driver: driver, Capacity: 10}
}
