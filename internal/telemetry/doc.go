// Package telemetry bundles the gateway's metrics and tracing plumbing.
//
// Metrics live on a private Prometheus registry served at /metrics.
// Tracing is an optional OTLP/gRPC exporter wired into the global OTel
// tracer provider; it stays off unless an endpoint is configured.
package telemetry
