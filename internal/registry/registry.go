// ABOUTME: Per-session registry of tools with schema validation
// ABOUTME: Preserves registration order and applies last-wins replacement by name

package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/2389/seance-gateway/internal/protocol"
)

// ErrToolNotFound indicates no tool with the requested name is registered.
var ErrToolNotFound = errors.New("tool not found")

// ErrResourceNotFound indicates no resource matches the requested URI.
var ErrResourceNotFound = errors.New("resource not found")

// ErrPromptNotFound indicates no prompt with the requested name is registered.
var ErrPromptNotFound = errors.New("prompt not found")

// OriginLocal marks entries served by the gateway itself rather than a
// connected provider.
const OriginLocal = "local"

// Handler executes a tool call with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error)

// ToolEntry describes one callable tool in a session's namespace.
type ToolEntry struct {
	Name        string
	Description string
	InputSchema json.RawMessage // JSON Schema served to clients
	Origin      string          // OriginLocal or the owning provider's name
	Handler     Handler

	schema *jsonschema.Schema // compiled form, nil when absent or not compilable
}

// ValidationIssue is one schema violation found in tool arguments.
type ValidationIssue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Validate checks args against the tool's input schema. A nil result
// means the arguments are acceptable. Tools without a schema accept
// anything.
func (e *ToolEntry) Validate(ctx context.Context, args map[string]any) []ValidationIssue {
	if e.schema == nil {
		return nil
	}

	vs := e.schema.Validate(ctx, args)
	errs := *vs.Errs
	if len(errs) == 0 {
		return nil
	}

	issues := make([]ValidationIssue, 0, len(errs))
	for _, kerr := range errs {
		issues = append(issues, ValidationIssue{
			Path:    kerr.PropertyPath,
			Message: kerr.Message,
		})
	}
	return issues
}

// Registry holds one session's merged namespace of tools, resources, and
// prompts. Every session owns its own instance; nothing is shared.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]*ToolEntry
	toolOrder   []string
	resources   map[string]*ResourceEntry
	resOrder    []string
	templates   []*ResourceTemplate
	prompts     map[string]*PromptEntry
	promptOrder []string
	logger      *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:     make(map[string]*ToolEntry),
		resources: make(map[string]*ResourceEntry),
		prompts:   make(map[string]*PromptEntry),
		logger:    logger,
	}
}

// RegisterTool adds a tool to the namespace. Registering a name that
// already exists replaces the previous entry: the newcomer wins, but the
// name keeps its original position in listing order.
func (r *Registry) RegisterTool(entry *ToolEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.schema = compileSchema(r.logger, entry.Name, entry.Origin, entry.InputSchema)

	if prev, exists := r.tools[entry.Name]; exists {
		r.logger.Warn("tool name collision, replacing previous registration",
			"tool", entry.Name,
			"previous_origin", prev.Origin,
			"new_origin", entry.Origin,
		)
		r.tools[entry.Name] = entry
		return
	}

	r.tools[entry.Name] = entry
	r.toolOrder = append(r.toolOrder, entry.Name)
}

// compileSchema parses a raw JSON Schema. Schemas that do not parse are
// logged and skipped; the raw bytes are still served to clients but
// arguments pass through unvalidated.
func compileSchema(logger *slog.Logger, name, origin string, raw json.RawMessage) *jsonschema.Schema {
	if len(raw) == 0 {
		return nil
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		logger.Warn("tool input schema does not parse, skipping validation",
			"tool", name, "origin", origin, "error", err)
		return nil
	}
	return rs
}

// LookupTool finds a tool by name.
func (r *Registry) LookupTool(name string) (*ToolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return entry, nil
}

// ListTools returns descriptors for every registered tool in registration
// order. The slice is rebuilt on every call.
func (r *Registry) ListTools() []protocol.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]protocol.ToolInfo, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		entry := r.tools[name]
		infos = append(infos, protocol.ToolInfo{
			Name:        entry.Name,
			Description: entry.Description,
			InputSchema: entry.InputSchema,
		})
	}
	return infos
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
