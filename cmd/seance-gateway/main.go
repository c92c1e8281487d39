// ABOUTME: Entry point for the seance-gateway server and its CLI commands
// ABOUTME: Dispatches serve/init/health/tools/call/version on os.Args

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/2389/seance-gateway/internal/config"
	"github.com/2389/seance-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                 _
 ___  ___  __ _ _ __   ___ ___        __ _  __ _| |_ _____      ____ _ _   _
/ __|/ _ \/ _' | '_ \ / __/ _ \_____/ _' |/ _' | __/ _ \ \ /\ / / _' | | | |
\__ \  __/ (_| | | | | (_|  __/_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|___/\___|\__,_|_| |_|\___\___|      \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                                     |___/                             |___/
`

// resolveConfigPath returns the gateway config file path.
// Priority: --config flag > SEANCE_CONFIG env var > XDG config dir > /etc.
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("SEANCE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	xdgPath := filepath.Join(configDir, "seance", "gateway.yaml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}

	etcPath := "/etc/seance/gateway.yaml"
	if _, err := os.Stat(etcPath); err == nil {
		return etcPath
	}

	return xdgPath
}

// splitConfigFlag extracts the --config flag from args, returning the
// configured path and the remaining arguments.
func splitConfigFlag(args []string) (string, []string, error) {
	var configPath string
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--config requires a value")
			}
			configPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		default:
			rest = append(rest, arg)
		}
	}
	return configPath, rest, nil
}

func usage() {
	fmt.Println("Usage: seance-gateway [--config FILE] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve               Start the gateway server (default)")
	fmt.Println("  init                Create a new config file interactively")
	fmt.Println("  health              Check gateway health")
	fmt.Println("  tools               List tools exposed by a running gateway")
	fmt.Println("  call NAME [ARGS]    Call a tool with optional JSON arguments")
	fmt.Println("  version             Print the version")
}

func main() {
	configFlag, args, err := splitConfigFlag(os.Args[1:])
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command := "serve"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "serve":
		err = runServe(ctx, configFlag)
	case "init":
		err = runInit(configFlag)
	case "health":
		err = runHealth(ctx, configFlag)
	case "tools":
		err = runTools(ctx, configFlag)
	case "call":
		err = runCall(ctx, configFlag, args)
	case "version":
		fmt.Printf("seance-gateway %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, configFlag string) error {
	configPath := resolveConfigPath(configFlag)

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("MCP path:  %s\n", cfg.Server.MCPPath)
	green.Print("    ▶ ")
	fmt.Printf("Providers: %d\n", len(cfg.Providers))

	// Tailscale status
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting seance-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"mcp_path", cfg.Server.MCPPath,
		"providers", len(cfg.Providers),
	)

	// Create and run gateway
	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// gatewayBaseURL resolves the base URL of a running gateway for the probe
// commands. Priority: SEANCE_GATEWAY_URL env > tailscale hostname > http_addr.
func gatewayBaseURL(cfg *config.Config) string {
	if envURL := os.Getenv("SEANCE_GATEWAY_URL"); envURL != "" {
		return strings.TrimSuffix(envURL, "/")
	}
	if cfg.Tailscale.Enabled {
		return "https://" + cfg.Tailscale.Hostname
	}
	return "http://" + cfg.Server.HTTPAddr
}

func runHealth(ctx context.Context, configFlag string) error {
	cfg, err := config.Load(resolveConfigPath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := gatewayBaseURL(cfg) + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// dialGateway connects an MCP client to the running gateway and completes
// the initialize handshake.
func dialGateway(ctx context.Context, cfg *config.Config) (*mcpclient.Client, error) {
	endpoint := gatewayBaseURL(cfg) + cfg.Server.MCPPath

	c, err := mcpclient.NewStreamableHttpClient(endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting transport: %w", err)
	}

	var initReq mcp.InitializeRequest
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "seance-gateway-cli", Version: version}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return c, nil
}

func runTools(ctx context.Context, configFlag string) error {
	cfg, err := config.Load(resolveConfigPath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := dialGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	count := 0
	var cursor mcp.Cursor
	for {
		var req mcp.ListToolsRequest
		req.Params.Cursor = cursor
		page, err := c.ListTools(ctx, req)
		if err != nil {
			return fmt.Errorf("listing tools: %w", err)
		}

		for _, tool := range page.Tools {
			cyan.Printf("  %s\n", tool.Name)
			if tool.Description != "" {
				gray.Printf("      %s\n", firstLine(tool.Description))
			}
			count++
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	fmt.Printf("\n%d tools\n", count)
	return nil
}

func runCall(ctx context.Context, configFlag string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: seance-gateway call NAME [JSON-ARGS]")
	}
	toolName := args[0]

	toolArgs := map[string]any{}
	if len(args) > 1 {
		if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
			return fmt.Errorf("parsing tool arguments (must be a JSON object): %w", err)
		}
	}

	cfg, err := config.Load(resolveConfigPath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := dialGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	var req mcp.CallToolRequest
	req.Params.Name = toolName
	req.Params.Arguments = toolArgs
	res, err := c.CallTool(ctx, req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", toolName, err)
	}

	for _, item := range res.Content {
		if text, ok := item.(mcp.TextContent); ok {
			fmt.Println(text.Text)
		}
	}

	if res.IsError {
		return fmt.Errorf("tool %s reported an error", toolName)
	}
	return nil
}

// firstLine truncates multi-line descriptions for the listing.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

func runInit(configFlag string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("seance-gateway configuration setup")
	fmt.Println("==================================")
	fmt.Println()

	// Default paths
	defaultConfigPath := resolveConfigPath(configFlag)
	defaultDBPath := defaultDataPath()

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	mcpPath := prompt(reader, "MCP endpoint path", "/mcp")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDBPath)

	// Auth
	fmt.Println("\n--- Auth Configuration ---")
	requireAuthStr := prompt(reader, "Require bearer auth?", "no")
	requireAuth := isYes(requireAuthStr)
	var jwtSecret string
	if requireAuth {
		secretBytes := make([]byte, 32)
		if _, err := rand.Read(secretBytes); err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		jwtSecret = base64.StdEncoding.EncodeToString(secretBytes)
	}

	// Tailscale
	fmt.Println("\n--- Tailscale Configuration ---")
	tailscaleEnabled := isYes(prompt(reader, "Enable Tailscale?", "no"))

	var tsHostname, tsAuthKey string
	var tsEphemeral, tsFunnel bool
	if tailscaleEnabled {
		tsHostname = prompt(reader, "Tailscale hostname", "seance-gateway")
		tsAuthKey = prompt(reader, "Tailscale auth key (leave empty for TS_AUTHKEY)", "")
		tsEphemeral = isYes(prompt(reader, "Ephemeral node?", "no"))
		tsFunnel = isYes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# seance-gateway configuration\n")
	cfg.WriteString("# Generated by seance-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString(fmt.Sprintf("  mcp_path: \"%s\"\n", mcpPath))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	if requireAuth {
		cfg.WriteString("auth:\n")
		cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
		cfg.WriteString("  require_auth: true\n")
		cfg.WriteString("\n")
	}

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", tailscaleEnabled))
	if tailscaleEnabled {
		cfg.WriteString(fmt.Sprintf("  hostname: \"%s\"\n", tsHostname))
		if tsAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: \"%s\"\n", tsAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  ephemeral: %t\n", tsEphemeral))
		cfg.WriteString(fmt.Sprintf("  funnel: %t\n", tsFunnel))
	}
	cfg.WriteString("\n")

	cfg.WriteString("session:\n")
	cfg.WriteString("  idle_timeout: \"30m\"\n")
	cfg.WriteString("  sweep_interval: \"1m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("# providers:\n")
	cfg.WriteString("#   - name: \"demo\"\n")
	cfg.WriteString("#     url: \"http://localhost:9090/mcp\"\n")
	cfg.WriteString("#     transport: \"streamable-http\"\n")
	cfg.WriteString("#     timeout: \"10s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString("  enabled: false\n")
	cfg.WriteString("  path: \"/metrics\"\n")

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  seance-gateway serve\n")

	return nil
}

// defaultDataPath returns the default database path.
// Priority: XDG_DATA_HOME/seance > ~/.local/share/seance.
func defaultDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.db" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "seance", "gateway.db")
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
