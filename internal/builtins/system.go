// ABOUTME: System toolset exposing echo and a live session snapshot.
// ABOUTME: SessionInfo is supplied by the owning unit via callback.

package builtins

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/provider"
	"github.com/2389/seance-gateway/internal/registry"
)

// SessionInfo is a point-in-time snapshot of a session unit, served by the
// session_info tool and the seance://session resource.
type SessionInfo struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	CreatedAt  time.Time         `json:"created_at"`
	AgeSeconds int64             `json:"age_seconds"`
	ToolCount  int               `json:"tool_count"`
	Providers  []provider.Status `json:"providers,omitempty"`
}

// SessionInfoFunc supplies the current snapshot of the owning unit.
type SessionInfoFunc func() SessionInfo

// SystemTools builds the system toolset.
func SystemTools(info SessionInfoFunc) []*registry.ToolEntry {
	return []*registry.ToolEntry{
		{
			Name:        "echo",
			Description: "Echo the given text back to the caller",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
			Origin:      registry.OriginLocal,
			Handler: func(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
				var in struct {
					Text string `json:"text"`
				}
				if err := decodeArgs(args, &in); err != nil {
					return nil, err
				}
				return protocol.TextResult(in.Text), nil
			},
		},
		{
			Name:        "session_info",
			Description: "Describe the current session: id, state, age, and tool count",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Origin:      registry.OriginLocal,
			Handler: func(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
				return jsonResult(info())
			},
		},
	}
}
