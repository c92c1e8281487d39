// ABOUTME: Standalone MCP provider serving the demo tool set for development and E2E testing.
// ABOUTME: Usage: FAKE_PROVIDER_TRANSPORT=sse FAKE_PROVIDER_LISTEN_ADDR=localhost:9090 fake-provider
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mark3labs/mcp-go/server"

	"github.com/2389/seance-gateway/internal/provider"
)

// Config holds provider settings, loaded from FAKE_PROVIDER_* environment variables.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:"localhost:9090"`
	Transport       string        `envconfig:"TRANSPORT" default:"streamable-http"`
	Name            string        `envconfig:"NAME" default:"fake-provider"`
	Version         string        `envconfig:"VERSION" default:"0.1.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

func main() {
	// Logs go to stderr so the stdio transport keeps stdout for the protocol stream.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg Config
	if err := envconfig.Process("fake_provider", &cfg); err != nil {
		logger.Error("failed to process configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("fake-provider exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := provider.NewDemoServer(cfg.Name, cfg.Version)

	switch cfg.Transport {
	case "stdio":
		logger.Info("serving on stdio", "name", cfg.Name)
		stdioServer := server.NewStdioServer(srv)
		return stdioServer.Listen(ctx, os.Stdin, os.Stdout)

	case "sse":
		sseServer := server.NewSSEServer(srv, server.WithBaseURL("http://"+cfg.ListenAddr))
		return serveHTTP(ctx, cfg, logger, "sse", sseServer.Start, sseServer.Shutdown)

	case "streamable-http":
		httpServer := server.NewStreamableHTTPServer(srv)
		return serveHTTP(ctx, cfg, logger, "streamable-http", httpServer.Start, httpServer.Shutdown)

	default:
		return errors.New("unknown transport: " + cfg.Transport)
	}
}

// serveHTTP runs an HTTP-based transport until the context is canceled, then
// shuts it down within the configured timeout.
func serveHTTP(ctx context.Context, cfg Config, logger *slog.Logger, transport string, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("fake provider listening", "transport", transport, "addr", cfg.ListenAddr, "name", cfg.Name)
		if err := start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("fake provider stopped")
	return nil
}
