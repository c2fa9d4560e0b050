package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/waypoint/pkg/lazy"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics(WithRegistry(reg), WithNamespace("test")), reg
}

func TestMetricsObserver(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.Resolved("/[...catchall]", router.OutcomeMatched, 3*time.Millisecond)
	m.Resolved("/[...catchall]", router.OutcomeMatched, time.Millisecond)
	m.Resolved("", router.OutcomeNotFound, time.Millisecond)
	m.MatcherRejected("/[id=uuid]", "uuid")
	m.MatcherFailed("/[id=broken]", "broken")
	m.ModuleLoaded("node", time.Millisecond, nil)
	m.ModuleLoaded("node", time.Millisecond, fmt.Errorf("fetch: %w", modules.ErrNotExist))

	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("/[...catchall]", "matched")); got != 2 {
		t.Errorf("resolutions(matched) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("none", "not_found")); got != 1 {
		t.Errorf("resolutions(not_found) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.matcherRejections.WithLabelValues("uuid")); got != 1 {
		t.Errorf("matcher_rejections(uuid) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.matcherFailures.WithLabelValues("broken")); got != 1 {
		t.Errorf("matcher_failures(broken) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.moduleLoads.WithLabelValues("node", "success")); got != 1 {
		t.Errorf("module_loads(success) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.moduleLoads.WithLabelValues("node", "not_found")); got != 1 {
		t.Errorf("module_loads(not_found) = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.resolveDuration); got != 2 {
		t.Errorf("resolve_duration series = %d, want 2", got)
	}
}

func TestMetricsWebSocket(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.WebSocketOpened()
	m.WebSocketOpened()
	m.WebSocketClosed()
	m.WebSocketError("decode")

	if got := testutil.ToFloat64(m.wsConnections); got != 1 {
		t.Errorf("websocket_connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("decode")); got != 1 {
		t.Errorf("websocket_errors(decode) = %v, want 1", got)
	}
}

func TestMetricsRegistry(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.Resolved("/", router.OutcomeMatched, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_resolutions_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_resolutions_total not registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	NewMetrics(WithRegistry(reg), WithNamespace("test"))
}

func TestMetricsMiddleware(t *testing.T) {
	m, _ := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	for _, path := range []string{"/items/1", "/items/2", "/boom", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/items/{id}", "200")); got != 2 {
		t.Errorf("http_requests(/items/{id}) = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/boom", "502")); got != 1 {
		t.Errorf("http_requests(/boom) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "404")); got != 1 {
		t.Errorf("http_requests(unmatched) = %v, want 1", got)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("fetch a.js: %w", modules.ErrNotExist), "not_found"},
		{fmt.Errorf("%w: %q", modules.ErrInvalidName, "../x"), "invalid_name"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("%w: oops", lazy.ErrProducerPanic), "panic"},
		{errors.New("connection reset"), "error"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
