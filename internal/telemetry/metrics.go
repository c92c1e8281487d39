// ABOUTME: Prometheus metrics for the gateway on a private registry.
// ABOUTME: Counts sessions, requests, tool calls, and provider failures.

package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the gateway's Prometheus collectors. Everything registers on
// a private registry so the handler never exposes foreign collectors. A nil
// *Metrics disables collection; every recording method tolerates it, so
// callers never branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	sessionsCreated  prometheus.Counter
	sessionsEvicted  prometheus.Counter
	requests         *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	providerFailures prometheus.Counter
	toolCallDuration prometheus.Histogram
}

// NewMetrics builds the collector set on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seance",
			Name:      "sessions_created_total",
			Help:      "Session units created.",
		}),
		sessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seance",
			Name:      "sessions_evicted_total",
			Help:      "Session units evicted for idleness or terminated by the client.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seance",
			Name:      "requests_total",
			Help:      "JSON-RPC requests handled, by method.",
		}, []string{"method"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seance",
			Name:      "tool_calls_total",
			Help:      "Tool calls dispatched, by outcome.",
		}, []string{"outcome"}),
		providerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seance",
			Name:      "provider_failures_total",
			Help:      "Providers that failed to connect or discover.",
		}),
		toolCallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seance",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call handler latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.sessionsCreated,
		m.sessionsEvicted,
		m.requests,
		m.toolCalls,
		m.providerFailures,
		m.toolCallDuration,
	)
	return m
}

// SessionCreated counts one new session unit.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// SessionEvicted counts one evicted or terminated session unit.
func (m *Metrics) SessionEvicted() {
	if m == nil {
		return
	}
	m.sessionsEvicted.Inc()
}

// RequestHandled counts one dispatched JSON-RPC request.
func (m *Metrics) RequestHandled(method string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method).Inc()
}

// ToolCall counts one tool call by outcome and observes its latency.
func (m *Metrics) ToolCall(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(outcome).Inc()
	m.toolCallDuration.Observe(elapsed.Seconds())
}

// ProviderFailure counts one provider that settled failed.
func (m *Metrics) ProviderFailure() {
	if m == nil {
		return
	}
	m.providerFailures.Inc()
}

// Handler serves the private registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
