package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/waypoint/pkg/lazy"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "waypoint").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "waypoint",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records resolver, module load, HTTP and WebSocket metrics.
// It implements router.Observer.
//
// Metrics collected (with the default namespace):
//   - waypoint_resolutions_total: resolutions by route and outcome
//   - waypoint_resolve_duration_seconds: resolution latency by outcome
//   - waypoint_matcher_rejections_total: matcher rejections by matcher
//   - waypoint_matcher_failures_total: matcher errors and panics by matcher
//   - waypoint_module_loads_total: producer calls by kind and status
//   - waypoint_module_load_duration_seconds: producer latency by kind
//   - waypoint_http_requests_total: HTTP requests by route pattern and code
//   - waypoint_http_request_duration_seconds: HTTP latency by route pattern
//   - waypoint_websocket_connections: open navigation sockets
//   - waypoint_websocket_errors_total: WebSocket errors by type
type Metrics struct {
	resolutions       *prometheus.CounterVec
	resolveDuration   *prometheus.HistogramVec
	matcherRejections *prometheus.CounterVec
	matcherFailures   *prometheus.CounterVec
	moduleLoads       *prometheus.CounterVec
	loadDuration      *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	wsConnections     prometheus.Gauge
	wsErrors          *prometheus.CounterVec
}

var _ router.Observer = (*Metrics)(nil)

// NewMetrics registers the metrics with the configured registry.
// Registering twice with the same registry panics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total number of path resolutions",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "outcome"}),

		resolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolve_duration_seconds",
			Help:        "Path resolution duration in seconds, including module loads",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),

		matcherRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "matcher_rejections_total",
			Help:        "Total number of parameter values rejected by a matcher",
			ConstLabels: config.ConstLabels,
		}, []string{"matcher"}),

		matcherFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "matcher_failures_total",
			Help:        "Total number of matchers that errored or panicked",
			ConstLabels: config.ConstLabels,
		}, []string{"matcher"}),

		moduleLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "module_loads_total",
			Help:        "Total number of module producer calls",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "status"}),

		loadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "module_load_duration_seconds",
			Help:        "Module producer duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "code"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		wsConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_connections",
			Help:        "Number of open navigation WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Resolved implements router.Observer.
func (m *Metrics) Resolved(routeID string, outcome router.Outcome, d time.Duration) {
	if routeID == "" {
		routeID = "none"
	}
	m.resolutions.WithLabelValues(routeID, string(outcome)).Inc()
	m.resolveDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// MatcherRejected implements router.Observer.
func (m *Metrics) MatcherRejected(_, matcher string) {
	m.matcherRejections.WithLabelValues(matcher).Inc()
}

// MatcherFailed implements router.Observer.
func (m *Metrics) MatcherFailed(_, matcher string) {
	m.matcherFailures.WithLabelValues(matcher).Inc()
}

// ModuleLoaded implements router.Observer.
func (m *Metrics) ModuleLoaded(kind string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = categorizeError(err)
	}
	m.moduleLoads.WithLabelValues(kind, status).Inc()
	m.loadDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// WebSocketOpened records a new navigation socket.
func (m *Metrics) WebSocketOpened() {
	m.wsConnections.Inc()
}

// WebSocketClosed records a closed navigation socket.
func (m *Metrics) WebSocketClosed() {
	m.wsConnections.Dec()
}

// WebSocketError records a WebSocket error of the given type
// ("upgrade", "read", "write", "decode").
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}

// Middleware records HTTP request counts and durations. It must be mounted
// on a chi router so the route pattern, not the raw path, is the label.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// routePattern returns the matched chi pattern, keeping labels bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// categorizeError returns a low-cardinality label for a load error.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, modules.ErrNotExist):
		return "not_found"
	case errors.Is(err, modules.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, lazy.ErrProducerPanic):
		return "panic"
	default:
		return "error"
	}
}
