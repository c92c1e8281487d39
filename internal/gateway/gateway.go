// ABOUTME: Gateway orchestrator wiring config, store, host, and the HTTP server
// ABOUTME: Manages listeners, observability endpoints, and graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/seance-gateway/internal/auth"
	"github.com/2389/seance-gateway/internal/config"
	"github.com/2389/seance-gateway/internal/events"
	"github.com/2389/seance-gateway/internal/host"
	"github.com/2389/seance-gateway/internal/provider"
	"github.com/2389/seance-gateway/internal/store"
	"github.com/2389/seance-gateway/internal/telemetry"
)

// Gateway orchestrates the seance-gateway server components: the session
// host behind the MCP endpoint, the SQLite store, the event broadcaster,
// and the observability surfaces.
type Gateway struct {
	config      *config.Config
	store       *store.SQLiteStore
	host        *host.Host
	broadcaster *events.Broadcaster
	metrics     *telemetry.Metrics
	verifier    *auth.JWTVerifier
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger

	shutdownTracing func(context.Context) error
}

// initStore creates the store based on config and environment.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("SEANCE_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	return NewWithBindings(cfg, logger, nil)
}

// NewWithBindings creates a gateway with in-process provider bindings.
// Bindings let embedders and tests mount mcp-go servers without a network
// hop; config providers with a binding field resolve against this map. The
// demo binding is always present and can be overridden by name.
func NewWithBindings(cfg *config.Config, logger *slog.Logger, bindings map[string]provider.Binding) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	effectiveBindings := provider.DemoBindings()
	for name, b := range bindings {
		effectiveBindings[name] = b
	}

	broadcaster := events.NewBroadcaster(logger)

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics()
	}

	var verifier *auth.JWTVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	}

	h, err := host.NewHost(host.Config{
		Store:         s,
		Providers:     cfg.Providers,
		Bindings:      effectiveBindings,
		IdleTimeout:   cfg.Session.IdleTimeout,
		SweepInterval: cfg.Session.SweepInterval,
		Logger:        logger,
		Events:        broadcaster,
		Metrics:       metrics,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating host: %w", err)
	}

	gw := &Gateway{
		config:      cfg,
		store:       s,
		host:        h,
		broadcaster: broadcaster,
		metrics:     metrics,
		verifier:    verifier,
		logger:      logger.With("component", "gateway"),
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.buildMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// buildMux assembles the HTTP routes: the MCP endpoint (optionally behind
// bearer auth), health probes, and the observability surfaces.
func (g *Gateway) buildMux() *http.ServeMux {
	mux := http.NewServeMux()

	var mcpHandler http.Handler = g.host
	if g.verifier != nil {
		mcpHandler = auth.Middleware(g.verifier, g.config.Auth.RequireAuth)(mcpHandler)
		g.logger.Info("MCP bearer auth enabled", "required", g.config.Auth.RequireAuth)
	} else {
		g.logger.Warn("auth disabled - no jwt_secret configured")
	}
	mux.Handle(g.config.Server.MCPPath, mcpHandler)

	mux.HandleFunc("/health", g.handleHealth)
	mux.HandleFunc("/health/ready", g.handleReady)
	mux.HandleFunc("/sessions", g.host.HandleSessions)
	mux.Handle("/events", g.broadcaster)

	if g.metrics != nil {
		mux.Handle(g.config.Metrics.Path, g.metrics.Handler())
	}

	return mux
}

// Handler exposes the assembled routes. Used by tests and embedders that
// serve the gateway through their own listener.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the gateway and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	shutdownTracing, err := telemetry.InitTracing(ctx, g.config.Tracing.OTLPEndpoint, g.logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	g.shutdownTracing = shutdownTracing

	g.host.StartJanitor(ctx)

	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "mcp_path", g.config.Server.MCPPath)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the gateway and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	g.host.CloseAll()
	g.broadcaster.Close()

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", g.store.Close())

	if g.shutdownTracing != nil {
		errs = appendCloseError(errs, "tracing shutdown", g.shutdownTracing(ctx))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers, 503 otherwise.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store unavailable: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d sessions)", g.host.UnitCount())
}
