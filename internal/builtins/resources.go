// ABOUTME: Built-in resources: session snapshot, todo stats, and per-todo lookup.
// ABOUTME: The per-todo resource resolves through the seance://todos/{id} template.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/registry"
	"github.com/2389/seance-gateway/internal/store"
)

// Resource URIs served by every session.
const (
	SessionResourceURI  = "seance://session"
	StatsResourceURI    = "seance://todos/stats"
	TodoResourcePattern = "seance://todos/{id}"
)

// Resources builds the built-in resource set for one session. The returned
// template serves individual todos by id.
func Resources(sessionID string, s store.Store, info SessionInfoFunc) ([]*registry.ResourceEntry, []*registry.ResourceTemplate) {
	entries := []*registry.ResourceEntry{
		{
			URI:         SessionResourceURI,
			Name:        "session",
			Description: "Snapshot of the current session unit",
			MIMEType:    "application/json",
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				return jsonContents(uri, info())
			},
		},
		{
			URI:         StatsResourceURI,
			Name:        "todo-stats",
			Description: "Todo counts by status for the current session",
			MIMEType:    "application/json",
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				stats, err := s.TodoStats(ctx, sessionID)
				if err != nil {
					return nil, fmt.Errorf("reading todo stats: %w", err)
				}
				return jsonContents(uri, map[string]any{"counts": stats})
			},
		},
	}

	templates := []*registry.ResourceTemplate{
		{
			Pattern: TodoResourcePattern,
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				todo, err := s.GetTodo(ctx, sessionID, params["id"])
				if err != nil {
					return nil, err
				}
				return jsonContents(uri, toTodoJSON(todo))
			},
		},
	}

	return entries, templates
}

// jsonContents renders v as a one-entry JSON resource result.
func jsonContents(uri string, v any) (*protocol.ReadResourceResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding contents: %w", err)
	}
	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(raw)},
		},
	}, nil
}
