// ABOUTME: Tests for the metrics collectors and tracing bootstrap.
// ABOUTME: Scrapes the exposition endpoint and checks nil-metrics safety.

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.SessionCreated()
	m.SessionCreated()
	m.SessionEvicted()
	m.RequestHandled("tools/call")
	m.RequestHandled("tools/call")
	m.RequestHandled("ping")
	m.ToolCall("ok", 25*time.Millisecond)
	m.ToolCall("invalid_input", time.Millisecond)
	m.ProviderFailure()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	exposition := string(body)

	assert.Contains(t, exposition, "seance_sessions_created_total 2")
	assert.Contains(t, exposition, "seance_sessions_evicted_total 1")
	assert.Contains(t, exposition, `seance_requests_total{method="tools/call"} 2`)
	assert.Contains(t, exposition, `seance_requests_total{method="ping"} 1`)
	assert.Contains(t, exposition, `seance_tool_calls_total{outcome="ok"} 1`)
	assert.Contains(t, exposition, `seance_tool_calls_total{outcome="invalid_input"} 1`)
	assert.Contains(t, exposition, "seance_provider_failures_total 1")
	assert.Contains(t, exposition, "seance_tool_call_duration_seconds_count 2")
}

func TestMetricsNilIsDisabled(t *testing.T) {
	var m *Metrics

	// Recording on nil metrics must be a no-op, not a panic.
	m.SessionCreated()
	m.SessionEvicted()
	m.RequestHandled("ping")
	m.ToolCall("ok", time.Second)
	m.ProviderFailure()
}

func TestInitTracingDisabledWithoutEndpoint(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := InitTracing(context.Background(), "", logger)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
