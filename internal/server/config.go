package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/waypoint/pkg/telemetry"
)

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	// Address is the host:port to listen on.
	Address string

	// ReadHeaderTimeout, ReadTimeout, WriteTimeout and IdleTimeout are
	// passed to http.Server. Zero means no timeout.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates WebSocket origins. Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// MaxFrameSize limits inbound WebSocket frames in bytes.
	MaxFrameSize int64

	// Metrics, when set, records HTTP metrics and serves /metrics from
	// Gatherer.
	Metrics  *telemetry.Metrics
	Gatherer prometheus.Gatherer

	// Logger is the request and lifecycle logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           "localhost:3000",
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		MaxFrameSize:      64 * 1024,
	}
}

// ValidateConfig checks the configuration for values the server cannot run
// with.
func (c *ServerConfig) ValidateConfig() error {
	if c.Address == "" {
		return fmt.Errorf("server: empty address")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("server: negative shutdown timeout %s", c.ShutdownTimeout)
	}
	if c.MaxFrameSize < 0 {
		return fmt.Errorf("server: negative max frame size %d", c.MaxFrameSize)
	}
	if c.Metrics != nil && c.Gatherer == nil {
		return fmt.Errorf("server: metrics enabled without a gatherer")
	}
	return nil
}

// SameOriginCheck accepts WebSocket requests without an Origin header or
// whose Origin host equals the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
