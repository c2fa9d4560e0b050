package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/server"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/telemetry"
)

var serveBindings = map[string]string{
	"server.host":    "host",
	"server.port":    "port",
	"server.metrics": "metrics",
}

func serveCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolve API and the build's assets",
		Long: `Start the HTTP service: the resolve and routes API, the navigation
WebSocket, static assets and app chunks, and Prometheus metrics.

Examples:
  waypoint serve
  waypoint serve --port 8080 --host 0.0.0.0
  WAYPOINT_STORE_KIND=s3 WAYPOINT_STORE_BUCKET=site waypoint serve`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, serveBindings)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().String("host", "", "Host to bind to (default: localhost)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default: 3000)")
	cmd.Flags().Bool("metrics", true, "Expose Prometheus metrics at /metrics")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	sc := server.DefaultServerConfig()
	sc.Address = a.cfg.Address()
	sc.Logger = a.logger

	opts := []manifest.BuildOption{manifest.WithTracer(telemetry.Tracer(""))}
	if a.cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
		sc.Metrics = metrics
		sc.Gatherer = reg
		opts = append(opts, manifest.WithObserver(metrics))
	}

	b, err := a.build(opts...)
	if err != nil {
		return err
	}

	a.logger.Debug("serve config",
		"store", a.cfg.Store.Kind,
		"metrics", a.cfg.Server.Metrics)
	return server.New(b, sc).Run(ctx)
}
