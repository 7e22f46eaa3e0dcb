// Package middleware provides net/http middleware for the shell server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus request metrics middleware
//
// Both are plain func(http.Handler) http.Handler values and can be
// installed on a chi router with Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("my-shell")))
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//
// # OpenTelemetry Middleware
//
// Every request gets a server span named after its chi route pattern
// ("GET /VAADIN/push"), so span names stay low-cardinality. The span is
// stored in the request context; use SpanFromContext in handlers.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// # Prometheus Metrics
//
// Metrics collected (with the default namespace "shell"):
//   - shell_http_requests_total: requests by route, method and status code
//   - shell_http_request_duration_seconds: request duration by route
//
// Push requests are counted when the WebSocket closes, so their duration
// is the lifetime of the connection.
package middleware
