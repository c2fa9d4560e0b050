// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for Waypoint.
//
// # Prometheus Metrics
//
// Metrics implements router.Observer, so it can be handed straight to the
// resolver:
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	bundle, err := manifest.Build(man, loader, manifest.WithObserver(m))
//
// Its Middleware records HTTP requests labelled by chi route pattern:
//
//	r := chi.NewRouter()
//	r.Use(m.Middleware)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # OpenTelemetry
//
// Tracing starts a server span per request and extracts any incoming trace
// context. The resolver's own spans ("waypoint.resolve",
// "waypoint.load_node") nest under it.
//
//	r.Use(telemetry.Tracing(
//	    telemetry.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	))
package telemetry
