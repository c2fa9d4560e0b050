package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestTracingPropagatesRemoteContext(t *testing.T) {
	var got trace.SpanContext
	var extracted bool

	r := chi.NewRouter()
	r.Use(Tracing(
		WithPropagator(propagation.TraceContext{}),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			extracted = true
			return []attribute.KeyValue{attribute.String("tenant", "acme")}
		}),
	))
	r.Get("/_waypoint/resolve", func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/_waypoint/resolve?path=/", nil)
	req.Header.Set("traceparent", traceparent)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if !extracted {
		t.Error("attribute extractor was not called")
	}
	if got.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID = %s, want the incoming trace id", got.TraceID())
	}
}

func TestTracingFilter(t *testing.T) {
	var got trace.SpanContext

	h := Tracing(
		WithPropagator(propagation.TraceContext{}),
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/healthz" }),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", traceparent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.IsValid() {
		t.Error("filtered request should not carry a span context")
	}
}

func TestTracerDefaultName(t *testing.T) {
	if Tracer("") == nil {
		t.Fatal("Tracer(\"\") returned nil")
	}
}
