// Package config handles configuration loading for seance-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from the --config flag
//  2. Path from SEANCE_CONFIG environment variable
//  3. ~/.config/seance/gateway.yaml
//  4. /etc/seance/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${SEANCE_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  mcp_path: "/mcp"
//
// Database:
//
//	database:
//	  path: "/var/lib/seance/gateway.db"   # ":memory:" for ephemeral
//
// Session lifecycle:
//
//	session:
//	  idle_timeout: "30m"    # evict units idle longer than this
//	  sweep_interval: "1m"   # janitor frequency
//
// External tool providers:
//
//	providers:
//	  - name: "weather"
//	    url: "http://localhost:9100/mcp"
//	    transport: "streamable-http"   # or "sse"
//	    timeout: "10s"
//	  - name: "demo"
//	    binding: "demo"                # in-process provider
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "seance-gateway"
//	  auth_key: "${TS_AUTHKEY}"
//	  funnel: false
//
// Logging, metrics, tracing:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//	tracing:
//	  otlp_endpoint: "localhost:4317"
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/seance/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
