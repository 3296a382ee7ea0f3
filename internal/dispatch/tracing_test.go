package dispatch

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTracingMiddlewareGeneratesTraceID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	TracingMiddleware(next).ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a generated trace ID in the request context")
	}
	if got := rec.Header().Get("X-Trace-ID"); got != seen {
		t.Errorf("X-Trace-ID header = %q, want %q", got, seen)
	}
}

func TestTracingMiddlewarePreservesUpstreamTraceID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	req.Header.Set("X-Trace-ID", "upstream-id")
	rec := httptest.NewRecorder()
	TracingMiddleware(next).ServeHTTP(rec, req)

	if seen != "upstream-id" {
		t.Errorf("trace ID = %q, want %q", seen, "upstream-id")
	}
}
