// Package gateway orchestrates the seance-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the server. It owns
// the SQLite store, the session host, the event broadcaster, the optional
// metrics registry, and the HTTP server that ties them together.
//
// # Routes
//
// The assembled mux exposes:
//
//   - POST/DELETE {mcp_path} - The MCP Streamable HTTP endpoint (default /mcp),
//     optionally behind bearer auth
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (store reachable)
//   - GET /sessions - Debug listing of live session units
//   - GET /events - Operational event stream (SSE)
//   - GET {metrics_path} - Prometheus exposition when metrics are enabled
//
// # Listeners
//
// By default the gateway listens on server.http_addr. With tailscale
// enabled it joins the tailnet as a tsnet node instead, serving plain
// HTTP on :80, HTTPS on :443 when cert files are configured, or public
// HTTPS via Funnel.
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	err = gw.Run(ctx)
//
// Run blocks until the context is canceled, then drains the HTTP server,
// closes every session unit, and releases the store. Tracing is
// initialized on startup when tracing.otlp_endpoint is set and flushed on
// the way down.
package gateway
