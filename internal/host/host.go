// ABOUTME: Session router for the MCP Streamable HTTP endpoint.
// ABOUTME: Maps session ids to execution units and owns the unit table.

package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/seance-gateway/internal/config"
	"github.com/2389/seance-gateway/internal/events"
	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/provider"
	"github.com/2389/seance-gateway/internal/session"
	"github.com/2389/seance-gateway/internal/store"
	"github.com/2389/seance-gateway/internal/telemetry"
)

// ErrInvalidSessionID is returned when a presented session id fails the
// identifier grammar.
var ErrInvalidSessionID = errors.New("invalid session id")

// Session ids are UUIDs or opaque tokens of url-safe characters. UUIDs
// match the opaque grammar too, so one pattern covers both.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// Config holds configuration for the host router.
type Config struct {
	Store         store.Store
	Providers     []config.ProviderConfig
	Bindings      map[string]provider.Binding
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Logger        *slog.Logger
	Events        *events.Broadcaster
	Metrics       *telemetry.Metrics
}

// Host routes requests on the MCP endpoint to session execution units.
// It owns only the id-to-unit table and the idle janitor; all session
// state lives in the units.
type Host struct {
	store         store.Store
	providers     []config.ProviderConfig
	bindings      map[string]provider.Binding
	idleTimeout   time.Duration
	sweepInterval time.Duration
	logger        *slog.Logger
	unitLogger    *slog.Logger
	events        *events.Broadcaster
	metrics       *telemetry.Metrics
	tracer        trace.Tracer

	mu    sync.Mutex
	units map[string]*session.Unit
}

// NewHost creates a host router with the given configuration.
func NewHost(cfg Config) (*Host, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idleTimeout := cfg.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = config.DefaultIdleTimeout
	}
	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = config.DefaultSweepInterval
	}

	return &Host{
		store:         cfg.Store,
		providers:     cfg.Providers,
		bindings:      cfg.Bindings,
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		logger:        logger.With("component", "host"),
		unitLogger:    logger,
		events:        cfg.Events,
		metrics:       cfg.Metrics,
		tracer:        otel.Tracer("seance-gateway"),
		units:         make(map[string]*session.Unit),
	}, nil
}

// ServeHTTP is the single MCP endpoint supporting POST and DELETE per the
// Streamable HTTP transport.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	case http.MethodGet:
		// No server-initiated streams on this endpoint; /events carries those.
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (h *Host) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.resolveSessionID(r)
	if err != nil {
		h.logger.Debug("rejected session id", "error", err)
		h.writeError(w, http.StatusBadRequest, nil, protocol.CodeInvalidRequest, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, protocol.MaxRequestBodySize+1))
	if err != nil {
		h.writeError(w, http.StatusOK, nil, protocol.CodeParseError, "failed to read request body")
		return
	}
	if int64(len(body)) > protocol.MaxRequestBodySize {
		h.writeError(w, http.StatusOK, nil, protocol.CodeInvalidRequest, "request body too large")
		return
	}

	var req protocol.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusOK, nil, protocol.CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		h.writeError(w, http.StatusOK, req.ID, protocol.CodeInvalidRequest, "invalid JSON-RPC version")
		return
	}

	// Validate the protocol version header on non-initialize requests.
	if req.Method != protocol.MethodInitialize {
		if v := r.Header.Get(protocol.ProtocolVersionHeader); v != "" && !protocol.SupportedVersions[v] {
			http.Error(w, "Bad Request: unsupported Mcp-Protocol-Version", http.StatusBadRequest)
			return
		}
	}

	// Stamp the resolved id so clients learn it even when we generated one.
	w.Header().Set(protocol.SessionHeader, sessionID)

	h.metrics.RequestHandled(req.Method)

	ctx, span := h.tracer.Start(r.Context(), req.Method,
		trace.WithAttributes(
			attribute.String("mcp.method", req.Method),
			attribute.String("mcp.session_id", sessionID),
		))
	defer span.End()

	h.logger.Debug("request",
		"method", req.Method,
		"session_id", sessionID,
		"is_notification", req.IsNotification(),
	)

	unit := h.getOrCreate(sessionID)
	resp := unit.Handle(ctx, &req)
	if resp == nil {
		// Notification: accepted, no body.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeResponse(w, resp)
}

// handleDelete terminates a session per the Streamable HTTP transport.
func (h *Host) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(protocol.SessionHeader)
	if sessionID == "" {
		sessionID = r.URL.Query().Get(protocol.SessionQueryParam)
	}
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	unit, ok := h.units[sessionID]
	if ok {
		delete(h.units, sessionID)
	}
	h.mu.Unlock()

	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	unit.Close()
	h.metrics.SessionEvicted()
	h.publish(events.Event{Type: events.TypeSessionDeleted, SessionID: sessionID})
	h.logger.Info("session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// resolveSessionID extracts the session id from the header or query
// parameter, generating a fresh UUID when absent. Malformed ids are
// rejected before any unit is contacted.
func (h *Host) resolveSessionID(r *http.Request) (string, error) {
	id := r.Header.Get(protocol.SessionHeader)
	if id == "" {
		id = r.URL.Query().Get(protocol.SessionQueryParam)
	}
	if id == "" {
		return uuid.New().String(), nil
	}
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return id, nil
}

// getOrCreate returns the unit for a session id, building a cold one on
// first sight. The same id always selects the same unit until eviction.
func (h *Host) getOrCreate(id string) *session.Unit {
	h.mu.Lock()
	defer h.mu.Unlock()

	if unit, ok := h.units[id]; ok {
		return unit
	}

	unit := session.New(session.Config{
		SessionID: id,
		Store:     h.store,
		Providers: h.providers,
		Bindings:  h.bindings,
		Logger:    h.unitLogger,
		Events:    h.events,
		Metrics:   h.metrics,
	})
	h.units[id] = unit

	h.metrics.SessionCreated()
	h.publish(events.Event{Type: events.TypeSessionCreated, SessionID: id})
	h.logger.Info("session created", "session_id", id)
	return unit
}

// UnitCount returns the number of live session units.
func (h *Host) UnitCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.units)
}

// CloseAll closes every unit. Driven by gateway shutdown.
func (h *Host) CloseAll() {
	h.mu.Lock()
	units := make([]*session.Unit, 0, len(h.units))
	for id, unit := range h.units {
		units = append(units, unit)
		delete(h.units, id)
	}
	h.mu.Unlock()

	for _, unit := range units {
		unit.Close()
	}
}

// sessionSummary is one row in the /sessions debug listing.
type sessionSummary struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	AgeSeconds  int64     `json:"age_seconds"`
	IdleSeconds int64     `json:"idle_seconds"`
	ToolCount   int       `json:"tool_count"`
}

// HandleSessions serves the debug listing of live session units.
func (h *Host) HandleSessions(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	units := make([]*session.Unit, 0, len(h.units))
	for _, unit := range h.units {
		units = append(units, unit)
	}
	h.mu.Unlock()

	summaries := make([]sessionSummary, 0, len(units))
	for _, unit := range units {
		info := unit.Snapshot()
		summaries = append(summaries, sessionSummary{
			ID:          info.ID,
			State:       info.State,
			CreatedAt:   info.CreatedAt,
			AgeSeconds:  info.AgeSeconds,
			IdleSeconds: int64(time.Since(unit.LastAccess()).Seconds()),
			ToolCount:   info.ToolCount,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"count":    len(summaries),
		"sessions": summaries,
	}); err != nil {
		h.logger.Warn("failed to encode session listing", "error", err)
	}
}

func (h *Host) publish(evt events.Event) {
	if h.events == nil {
		return
	}
	h.events.Publish(evt)
}

// writeResponse sends a JSON-RPC response with HTTP 200.
func (h *Host) writeResponse(w http.ResponseWriter, resp *protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

// writeError sends a JSON-RPC error response, optionally with a non-200
// HTTP status for transport-level rejections.
func (h *Host) writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := json.NewEncoder(w).Encode(protocol.NewError(id, code, message, nil)); err != nil {
		h.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
