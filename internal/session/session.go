// ABOUTME: Session execution unit: per-session state, dispatch, and lifecycle.
// ABOUTME: Initializes lazily on the first request and stays ready until evicted.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/seance-gateway/internal/builtins"
	"github.com/2389/seance-gateway/internal/config"
	"github.com/2389/seance-gateway/internal/events"
	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/provider"
	"github.com/2389/seance-gateway/internal/registry"
	"github.com/2389/seance-gateway/internal/store"
	"github.com/2389/seance-gateway/internal/telemetry"
)

// Unit lifecycle states.
const (
	StateUninitialized = "uninitialized"
	StateInitializing  = "initializing"
	StateReady         = "ready"
)

// Server identity advertised in initialize responses.
const (
	serverName    = "seance-gateway"
	serverVersion = "1.0.0"
)

// Config carries the collaborators a unit needs to build itself. Events
// and Metrics are optional; a nil broadcaster or nil metrics disables the
// corresponding emission.
type Config struct {
	SessionID string
	Store     store.Store
	Providers []config.ProviderConfig
	Bindings  map[string]provider.Binding
	Logger    *slog.Logger
	Events    *events.Broadcaster
	Metrics   *telemetry.Metrics
}

// Unit is one session's isolated execution context. It owns the session's
// registry and provider connections; nothing is shared between units.
type Unit struct {
	id        string
	store     store.Store
	providers []config.ProviderConfig
	bindings  map[string]provider.Binding
	logger    *slog.Logger
	events    *events.Broadcaster
	metrics   *telemetry.Metrics

	initOnce sync.Once
	initErr  error

	mu         sync.RWMutex
	state      string
	registry   *registry.Registry
	aggregator *provider.Aggregator
	createdAt  time.Time
	lastAccess time.Time
}

// New creates a unit for the given session id. Nothing connects until the
// first Handle call triggers initialization.
func New(cfg Config) *Unit {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	return &Unit{
		id:         cfg.SessionID,
		store:      cfg.Store,
		providers:  cfg.Providers,
		bindings:   cfg.Bindings,
		logger:     logger.With("component", "session"),
		events:     cfg.Events,
		metrics:    cfg.Metrics,
		state:      StateUninitialized,
		createdAt:  now,
		lastAccess: now,
	}
}

// ID returns the session identifier this unit serves.
func (u *Unit) ID() string {
	return u.id
}

// State returns the unit's current lifecycle state.
func (u *Unit) State() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state
}

// CreatedAt returns when the unit was constructed.
func (u *Unit) CreatedAt() time.Time {
	return u.createdAt
}

// LastAccess returns when the unit last handled a request. The host's
// janitor uses this to decide idle eviction.
func (u *Unit) LastAccess() time.Time {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.lastAccess
}

// Snapshot returns a point-in-time view of the unit, served by the
// session_info tool and the seance://session resource.
func (u *Unit) Snapshot() builtins.SessionInfo {
	u.mu.RLock()
	state := u.state
	reg := u.registry
	agg := u.aggregator
	u.mu.RUnlock()

	info := builtins.SessionInfo{
		ID:         u.id,
		State:      state,
		CreatedAt:  u.createdAt,
		AgeSeconds: int64(time.Since(u.createdAt).Seconds()),
	}
	if reg != nil {
		info.ToolCount = reg.ToolCount()
	}
	if agg != nil {
		info.Providers = agg.Statuses()
	}
	return info
}

// Close releases the unit's provider connections. Driven by the host on
// idle eviction or explicit session teardown.
func (u *Unit) Close() {
	u.mu.RLock()
	agg := u.aggregator
	u.mu.RUnlock()
	if agg != nil {
		agg.Close()
	}
}

// Handle processes one JSON-RPC request. A nil response means the request
// was a notification and the transport should answer 202 with no body.
func (u *Unit) Handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	u.touch()

	if err := u.ensureInit(ctx); err != nil {
		u.logger.Error("session initialization failed", "session_id", u.id, "error", err)
		if req.IsNotification() {
			return nil
		}
		return protocol.NewError(req.ID, protocol.CodeInternalError, "session initialization failed", nil)
	}

	if req.IsNotification() {
		if strings.HasPrefix(req.Method, "notifications/") {
			u.logger.Debug("accepted notification", "session_id", u.id, "method", req.Method)
		} else {
			u.logger.Warn("received notification for non-notification method",
				"session_id", u.id, "method", req.Method)
		}
		return nil
	}

	switch req.Method {
	case protocol.MethodInitialize:
		return u.handleInitialize(req)
	case protocol.MethodPing:
		return protocol.NewResult(req.ID, struct{}{})
	case protocol.MethodToolsList:
		return protocol.NewResult(req.ID, protocol.ListToolsResult{Tools: u.reg().ListTools()})
	case protocol.MethodToolsCall:
		return u.handleToolsCall(ctx, req)
	case protocol.MethodResourcesList:
		return protocol.NewResult(req.ID, protocol.ListResourcesResult{Resources: u.reg().ListResources()})
	case protocol.MethodResourcesRead:
		return u.handleResourcesRead(ctx, req)
	case protocol.MethodPromptsList:
		return protocol.NewResult(req.ID, protocol.ListPromptsResult{Prompts: u.reg().ListPrompts()})
	case protocol.MethodPromptsGet:
		return u.handlePromptsGet(ctx, req)
	default:
		return protocol.NewError(req.ID, protocol.CodeMethodNotFound, "method not found", nil)
	}
}

// ensureInit runs initialization exactly once and records its outcome.
// Concurrent callers block until the first completes; repeat callers get
// the recorded error back.
func (u *Unit) ensureInit(ctx context.Context) error {
	u.initOnce.Do(func() {
		u.initErr = u.initialize(ctx)
	})
	return u.initErr
}

// initialize builds the unit's registry, registers the local toolsets, and
// connects every configured provider. Provider failures do not fail the
// unit; partial availability is normal.
func (u *Unit) initialize(ctx context.Context) error {
	u.setState(StateInitializing)
	u.logger.Info("initializing session", "session_id", u.id, "providers", len(u.providers))

	reg := registry.NewRegistry(u.logger)

	for _, tool := range builtins.TodoTools(u.id, u.store) {
		reg.RegisterTool(tool)
	}
	for _, tool := range builtins.SystemTools(u.Snapshot) {
		reg.RegisterTool(tool)
	}

	resources, templates := builtins.Resources(u.id, u.store, u.Snapshot)
	for _, res := range resources {
		reg.RegisterResource(res)
	}
	for _, rt := range templates {
		if err := reg.RegisterResourceTemplate(rt); err != nil {
			return fmt.Errorf("registering resource template: %w", err)
		}
	}
	for _, prompt := range builtins.Prompts(u.id, u.store) {
		reg.RegisterPrompt(prompt)
	}

	agg := provider.NewAggregator(reg, u.bindings, u.logger)

	u.mu.Lock()
	u.registry = reg
	u.aggregator = agg
	u.mu.Unlock()

	agg.ConnectAll(ctx, u.providers)

	u.setState(StateReady)
	u.logger.Info("session ready", "session_id", u.id, "tools", reg.ToolCount())
	u.announceReady(agg.Statuses(), reg.ToolCount())
	return nil
}

// announceReady publishes the unit's post-initialization lifecycle events
// and counts provider failures.
func (u *Unit) announceReady(statuses []provider.Status, toolCount int) {
	for _, status := range statuses {
		switch status.State {
		case provider.StateReady:
			u.publish(events.Event{
				Type: events.TypeProviderReady,
				Data: map[string]any{"provider": status.Name, "tools": status.Tools},
			})
		case provider.StateFailed:
			u.metrics.ProviderFailure()
			u.publish(events.Event{
				Type: events.TypeProviderFailed,
				Data: map[string]any{"provider": status.Name, "error": status.Error},
			})
		}
	}

	u.publish(events.Event{
		Type: events.TypeToolsRegistered,
		Data: map[string]any{"count": toolCount},
	})
	u.publish(events.Event{
		Type: events.TypeSessionReady,
		Data: map[string]any{"tools": toolCount},
	})
}

func (u *Unit) publish(evt events.Event) {
	if u.events == nil {
		return
	}
	evt.SessionID = u.id
	u.events.Publish(evt)
}

// handleInitialize answers the MCP handshake. The session itself was
// already created by the host; this only negotiates the protocol version
// and advertises capabilities.
func (u *Unit) handleInitialize(req *protocol.Request) *protocol.Response {
	var params protocol.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewError(req.ID, protocol.CodeInvalidParams, "invalid params", nil)
		}
	}

	version := protocol.LatestVersion
	if protocol.SupportedVersions[params.ProtocolVersion] {
		version = params.ProtocolVersion
	}

	u.logger.Info("session initialized",
		"session_id", u.id,
		"protocol_version", version,
		"client", params.ClientInfo.Name,
	)

	return protocol.NewResult(req.ID, protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		ServerInfo: protocol.ServerInfo{Name: serverName, Version: serverVersion},
	})
}

// handleToolsCall validates arguments against the tool's schema, runs the
// handler, and records the call in the audit log. Handler errors become
// error-flagged results; the session stays usable.
func (u *Unit) handleToolsCall(ctx context.Context, req *protocol.Request) *protocol.Response {
	var params protocol.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewError(req.ID, protocol.CodeInvalidParams, "invalid params", nil)
		}
	}
	if params.Name == "" {
		return protocol.NewError(req.ID, protocol.CodeInvalidParams, "tool name is required", nil)
	}

	entry, err := u.reg().LookupTool(params.Name)
	if err != nil {
		return protocol.NewError(req.ID, protocol.CodeInvalidParams,
			fmt.Sprintf("unknown tool: %s", params.Name), nil)
	}

	args := map[string]any{}
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return protocol.NewError(req.ID, protocol.CodeInvalidParams, "arguments must be a JSON object", nil)
		}
	}

	if issues := entry.Validate(ctx, args); len(issues) > 0 {
		u.record(ctx, entry, store.OutcomeInvalidInput, 0)
		u.logger.Debug("tool arguments failed validation",
			"session_id", u.id, "tool", entry.Name, "issues", len(issues))
		return protocol.NewError(req.ID, protocol.CodeInvalidParams, "invalid arguments", issues)
	}

	start := time.Now()
	result, err := entry.Handler(ctx, args)
	elapsed := time.Since(start)

	if err != nil {
		outcome := store.OutcomeError
		if errors.Is(err, store.ErrNotFound) {
			outcome = store.OutcomeNotFound
		}
		u.record(ctx, entry, outcome, elapsed)
		u.logger.Warn("tool call failed",
			"session_id", u.id, "tool", entry.Name, "origin", entry.Origin, "error", err)
		return protocol.NewResult(req.ID, protocol.ErrorResult(err.Error()))
	}

	outcome := store.OutcomeOK
	if result.IsError {
		outcome = store.OutcomeError
	}
	u.record(ctx, entry, outcome, elapsed)

	u.logger.Debug("tool call complete",
		"session_id", u.id,
		"tool", entry.Name,
		"origin", entry.Origin,
		"is_error", result.IsError,
		"duration_ms", elapsed.Milliseconds(),
	)
	return protocol.NewResult(req.ID, result)
}

// handleResourcesRead resolves a URI to a reader and serves its contents.
func (u *Unit) handleResourcesRead(ctx context.Context, req *protocol.Request) *protocol.Response {
	var params protocol.ReadResourceParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewError(req.ID, protocol.CodeInvalidParams, "invalid params", nil)
		}
	}
	if params.URI == "" {
		return protocol.NewError(req.ID, protocol.CodeInvalidParams, "resource uri is required", nil)
	}

	reader, readerParams, err := u.reg().ResolveResource(params.URI)
	if err != nil {
		return protocol.NewError(req.ID, protocol.CodeResourceNotFound,
			fmt.Sprintf("unknown resource: %s", params.URI), nil)
	}

	result, err := reader(ctx, params.URI, readerParams)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return protocol.NewError(req.ID, protocol.CodeResourceNotFound,
				fmt.Sprintf("resource not found: %s", params.URI), nil)
		}
		u.logger.Warn("resource read failed", "session_id", u.id, "uri", params.URI, "error", err)
		return protocol.NewError(req.ID, protocol.CodeInternalError, "resource read failed", nil)
	}
	return protocol.NewResult(req.ID, result)
}

// handlePromptsGet renders a named prompt with the given arguments.
func (u *Unit) handlePromptsGet(ctx context.Context, req *protocol.Request) *protocol.Response {
	var params protocol.GetPromptParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewError(req.ID, protocol.CodeInvalidParams, "invalid params", nil)
		}
	}
	if params.Name == "" {
		return protocol.NewError(req.ID, protocol.CodeInvalidParams, "prompt name is required", nil)
	}

	entry, err := u.reg().LookupPrompt(params.Name)
	if err != nil {
		return protocol.NewError(req.ID, protocol.CodeInvalidParams,
			fmt.Sprintf("unknown prompt: %s", params.Name), nil)
	}

	result, err := entry.Renderer(ctx, params.Arguments)
	if err != nil {
		u.logger.Warn("prompt rendering failed", "session_id", u.id, "prompt", params.Name, "error", err)
		return protocol.NewError(req.ID, protocol.CodeInternalError, "prompt rendering failed", nil)
	}
	return protocol.NewResult(req.ID, result)
}

// record writes one audit row and counts the call. Audit failures are
// logged, never surfaced; a broken audit trail must not take down tool
// calls.
func (u *Unit) record(ctx context.Context, entry *registry.ToolEntry, outcome string, elapsed time.Duration) {
	u.metrics.ToolCall(outcome, elapsed)

	call := &store.ToolCall{
		SessionID:  u.id,
		Tool:       entry.Name,
		Origin:     entry.Origin,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	}
	if err := u.store.RecordToolCall(ctx, call); err != nil {
		u.logger.Warn("recording tool call", "session_id", u.id, "tool", entry.Name, "error", err)
	}
}

func (u *Unit) reg() *registry.Registry {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.registry
}

func (u *Unit) setState(state string) {
	u.mu.Lock()
	u.state = state
	u.mu.Unlock()
}

func (u *Unit) touch() {
	u.mu.Lock()
	u.lastAccess = time.Now()
	u.mu.Unlock()
}
