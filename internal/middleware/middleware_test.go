package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/logistiker/saleor-app/internal/logging"
)

func TestTracingMiddleware_GeneratesTraceID(t *testing.T) {
	logger := logging.New("test", "error", "json")

	var captured string
	handler := NewTracingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/manifest", nil))

	if captured == "" {
		t.Fatal("trace ID not set in context")
	}
	if rec.Header().Get(TraceHeader) != captured {
		t.Errorf("response header = %q, want %q", rec.Header().Get(TraceHeader), captured)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", rec.Code)
	}
}

func TestTracingMiddleware_PreservesTraceID(t *testing.T) {
	logger := logging.New("test", "error", "json")

	var captured string
	handler := NewTracingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = logging.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/manifest", nil)
	req.Header.Set(TraceHeader, "trace-456")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "trace-456" {
		t.Errorf("Trace ID = %v, want trace-456", captured)
	}
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware())
	r.HandleFunc("/api/hello", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/hello", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("Status code = %d", rec.Code)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	logger := logging.New("test", "error", "json")
	rl := NewRateLimiter(1, 2, logger)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/register", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("10.0.0.1:1111"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := do("10.0.0.1:2222")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "RateLimited" {
		t.Fatalf("error = %v", body["error"])
	}

	if rec := do("10.0.0.2:1111"); rec.Code != http.StatusOK {
		t.Fatalf("other client throttled: %d", rec.Code)
	}
}

func TestRateLimiter_DisabledWithZeroRate(t *testing.T) {
	rl := NewRateLimiter(0, 0, logging.New("test", "error", "json"))
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/register", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d throttled", i)
		}
	}
}

func TestRateLimiter_CleanupDropsIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1, logging.New("test", "error", "json"))
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.getLimiter("a")

	now = now.Add(time.Hour)
	rl.getLimiter("b")
	rl.Cleanup()

	if _, ok := rl.limiters["a"]; ok {
		t.Error("idle limiter kept")
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Error("active limiter dropped")
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl.StartCleanup(ctx, time.Millisecond)
	cancel()
}
