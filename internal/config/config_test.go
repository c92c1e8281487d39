// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and provider validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
  mcp_path: "/mcp"

database:
  path: "./test.db"

auth:
  jwt_secret: "test-secret"
  require_auth: true

session:
  idle_timeout: "15m"
  sweep_interval: "30s"

providers:
  - name: "weather"
    url: "http://localhost:9100/mcp"
    timeout: "10s"
  - name: "demo"
    binding: "demo"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  path: "/metrics"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Server.MCPPath != "/mcp" {
		t.Errorf("Server.MCPPath = %q, want %q", cfg.Server.MCPPath, "/mcp")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "test-secret")
	}
	if !cfg.Auth.RequireAuth {
		t.Error("Auth.RequireAuth = false, want true")
	}

	if cfg.Session.IdleTimeout != 15*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want %v", cfg.Session.IdleTimeout, 15*time.Minute)
	}
	if cfg.Session.SweepInterval != 30*time.Second {
		t.Errorf("Session.SweepInterval = %v, want %v", cfg.Session.SweepInterval, 30*time.Second)
	}

	if len(cfg.Providers) != 2 {
		t.Fatalf("Providers len = %d, want 2", len(cfg.Providers))
	}
	if cfg.Providers[0].Name != "weather" {
		t.Errorf("Providers[0].Name = %q, want %q", cfg.Providers[0].Name, "weather")
	}
	if cfg.Providers[0].Kind() != TransportStreamableHTTP {
		t.Errorf("Providers[0].Kind() = %q, want %q", cfg.Providers[0].Kind(), TransportStreamableHTTP)
	}
	if cfg.Providers[0].Timeout != 10*time.Second {
		t.Errorf("Providers[0].Timeout = %v, want %v", cfg.Providers[0].Timeout, 10*time.Second)
	}
	if cfg.Providers[1].Kind() != TransportBinding {
		t.Errorf("Providers[1].Kind() = %q, want %q", cfg.Providers[1].Kind(), TransportBinding)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.MCPPath != DefaultMCPPath {
		t.Errorf("Server.MCPPath = %q, want default %q", cfg.Server.MCPPath, DefaultMCPPath)
	}
	if cfg.Metrics.Path != DefaultMetricsPath {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, DefaultMetricsPath)
	}
	if cfg.Session.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("Session.IdleTimeout = %v, want default %v", cfg.Session.IdleTimeout, DefaultIdleTimeout)
	}
	if cfg.Session.SweepInterval != DefaultSweepInterval {
		t.Errorf("Session.SweepInterval = %v, want default %v", cfg.Session.SweepInterval, DefaultSweepInterval)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "secret-from-env")
	t.Setenv("TEST_PROVIDER_URL", "http://provider.example:9100/mcp")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
providers:
  - name: "remote"
    url: "${TEST_PROVIDER_URL}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
	if cfg.Providers[0].URL != "http://provider.example:9100/mcp" {
		t.Errorf("Providers[0].URL = %q, want %q", cfg.Providers[0].URL, "http://provider.example:9100/mcp")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr "missing colon"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
session:
  idle_timeout: "invalid-duration"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing http_addr",
			configContent: `
server:
  http_addr: ""
database:
  path: "./test.db"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "missing database path",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: ""
`,
			wantErrSubstr: "database.path is required",
		},
		{
			name: "require_auth without secret",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
auth:
  require_auth: true
`,
			wantErrSubstr: "auth.jwt_secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.configContent)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}

			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestLoad_ProviderValidation(t *testing.T) {
	tests := []struct {
		name          string
		providerYAML  string
		wantErrSubstr string
	}{
		{
			name: "missing name",
			providerYAML: `
  - url: "http://localhost:9100/mcp"
`,
			wantErrSubstr: "providers[0].name is required",
		},
		{
			name: "duplicate names",
			providerYAML: `
  - name: "dup"
    url: "http://localhost:9100/mcp"
  - name: "dup"
    url: "http://localhost:9200/mcp"
`,
			wantErrSubstr: "duplicate provider name",
		},
		{
			name: "neither url nor binding",
			providerYAML: `
  - name: "empty"
`,
			wantErrSubstr: "either url or binding is required",
		},
		{
			name: "both url and binding",
			providerYAML: `
  - name: "both"
    url: "http://localhost:9100/mcp"
    binding: "demo"
`,
			wantErrSubstr: "mutually exclusive",
		},
		{
			name: "transport on binding",
			providerYAML: `
  - name: "bound"
    binding: "demo"
    transport: "sse"
`,
			wantErrSubstr: "transport does not apply",
		},
		{
			name: "unknown transport",
			providerYAML: `
  - name: "weird"
    url: "http://localhost:9100/mcp"
    transport: "websocket"
`,
			wantErrSubstr: "unknown transport",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
providers:`+tt.providerYAML)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidate_TailscaleConfig(t *testing.T) {
	tests := []struct {
		name          string
		cfg           Config
		wantErr       bool
		wantErrSubstr string
	}{
		{
			name: "tailscale enabled allows empty server address",
			cfg: Config{
				Server:    ServerConfig{HTTPAddr: ""},
				Tailscale: TailscaleConfig{Enabled: true, Hostname: "seance-gateway"},
				Database:  DatabaseConfig{Path: "./test.db"},
			},
			wantErr: false,
		},
		{
			name: "tailscale enabled requires hostname",
			cfg: Config{
				Server:    ServerConfig{HTTPAddr: ""},
				Tailscale: TailscaleConfig{Enabled: true, Hostname: ""},
				Database:  DatabaseConfig{Path: "./test.db"},
			},
			wantErr:       true,
			wantErrSubstr: "tailscale.hostname is required",
		},
		{
			name: "tailscale disabled requires server address",
			cfg: Config{
				Server:    ServerConfig{HTTPAddr: ""},
				Tailscale: TailscaleConfig{Enabled: false, Hostname: "seance-gateway"},
				Database:  DatabaseConfig{Path: "./test.db"},
			},
			wantErr:       true,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "tailscale with all options set",
			cfg: Config{
				Server: ServerConfig{HTTPAddr: ""},
				Tailscale: TailscaleConfig{
					Enabled:   true,
					Hostname:  "seance-gateway",
					AuthKey:   "tskey-auth-xxx",
					StateDir:  "/tmp/ts-state",
					Ephemeral: true,
					Funnel:    true,
				},
				Database: DatabaseConfig{Path: "./test.db"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
					return
				}
				if !strings.Contains(err.Error(), tt.wantErrSubstr) {
					t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
				}
			} else {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			}
		})
	}
}
