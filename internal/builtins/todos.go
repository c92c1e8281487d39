// ABOUTME: Todos toolset providing CRUD tools backed by the session store.
// ABOUTME: Exercises the full filter surface: search, status, tags, dates, sorting, pagination.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/registry"
	"github.com/2389/seance-gateway/internal/store"
)

// TodoTools builds the todos toolset for one session. Every tool operates
// only on the given session's rows.
func TodoTools(sessionID string, s store.Store) []*registry.ToolEntry {
	h := &todoHandlers{sessionID: sessionID, store: s}
	return []*registry.ToolEntry{
		{
			Name:        "create_todo",
			Description: "Create a todo",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"title":{"type":"string","minLength":1},"status":{"type":"string","enum":["not_started","in_progress","completed"]},"priority":{"type":"string","enum":["low","medium","high"]},"tags":{"type":"array","items":{"type":"string"}},"notes":{"type":"string"},"due_date":{"type":"string","format":"date-time"}},"required":["title"]}`),
			Origin:      registry.OriginLocal,
			Handler:     h.Create,
		},
		{
			Name:        "get_todo",
			Description: "Get a todo by id",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
			Origin:      registry.OriginLocal,
			Handler:     h.Get,
		},
		{
			Name:        "list_todos",
			Description: "List todos with optional filters, sorting, and pagination",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"search":{"type":"string"},"status":{"type":"string","enum":["not_started","in_progress","completed"]},"tag":{"type":"string"},"created_after":{"type":"string","format":"date-time"},"created_before":{"type":"string","format":"date-time"},"sort_by":{"type":"string","enum":["created_at","updated_at","title"]},"sort_direction":{"type":"string","enum":["asc","desc"]},"limit":{"type":"integer","minimum":0},"offset":{"type":"integer","minimum":0}}}`),
			Origin:      registry.OriginLocal,
			Handler:     h.List,
		},
		{
			Name:        "update_todo",
			Description: "Update a todo; omitted fields are left unchanged",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"},"title":{"type":"string","minLength":1},"status":{"type":"string","enum":["not_started","in_progress","completed"]},"priority":{"type":"string","enum":["low","medium","high"]},"tags":{"type":"array","items":{"type":"string"}},"notes":{"type":"string"},"due_date":{"type":"string","format":"date-time"}},"required":["id"]}`),
			Origin:      registry.OriginLocal,
			Handler:     h.Update,
		},
		{
			Name:        "delete_todo",
			Description: "Delete a todo by id",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}`),
			Origin:      registry.OriginLocal,
			Handler:     h.Delete,
		},
	}
}

type todoHandlers struct {
	sessionID string
	store     store.Store
}

// todoJSON is the wire shape of a todo in tool results.
type todoJSON struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Priority  string     `json:"priority"`
	Tags      []string   `json:"tags,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toTodoJSON(t *store.Todo) todoJSON {
	return todoJSON{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		Tags:      t.Tags,
		Notes:     t.Notes,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type createTodoInput struct {
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
	DueDate  string   `json:"due_date"`
}

func (h *todoHandlers) Create(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in createTodoInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	todo := &store.Todo{
		SessionID: h.sessionID,
		Title:     in.Title,
		Status:    in.Status,
		Priority:  in.Priority,
		Tags:      in.Tags,
		Notes:     in.Notes,
	}
	if in.DueDate != "" {
		t, err := time.Parse(time.RFC3339, in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		todo.DueDate = &t
	}

	if err := h.store.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	return jsonResult(toTodoJSON(todo))
}

type todoIDInput struct {
	ID string `json:"id"`
}

func (h *todoHandlers) Get(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in todoIDInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	todo, err := h.store.GetTodo(ctx, h.sessionID, in.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(toTodoJSON(todo))
}

type listTodosInput struct {
	Search        string `json:"search"`
	Status        string `json:"status"`
	Tag           string `json:"tag"`
	CreatedAfter  string `json:"created_after"`
	CreatedBefore string `json:"created_before"`
	SortBy        string `json:"sort_by"`
	SortDirection string `json:"sort_direction"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

func (h *todoHandlers) List(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in listTodosInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	filter := store.TodoFilter{
		Search:        in.Search,
		Status:        in.Status,
		Tag:           in.Tag,
		SortBy:        in.SortBy,
		SortDirection: in.SortDirection,
		Limit:         in.Limit,
		Offset:        in.Offset,
	}
	if in.CreatedAfter != "" {
		t, err := time.Parse(time.RFC3339, in.CreatedAfter)
		if err != nil {
			return nil, fmt.Errorf("invalid created_after: %w", err)
		}
		filter.CreatedAfter = &t
	}
	if in.CreatedBefore != "" {
		t, err := time.Parse(time.RFC3339, in.CreatedBefore)
		if err != nil {
			return nil, fmt.Errorf("invalid created_before: %w", err)
		}
		filter.CreatedBefore = &t
	}

	todos, err := h.store.ListTodos(ctx, h.sessionID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}

	out := make([]todoJSON, 0, len(todos))
	for _, t := range todos {
		out = append(out, toTodoJSON(t))
	}
	return jsonResult(map[string]any{"todos": out, "count": len(out)})
}

type updateTodoInput struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes"`
	DueDate  string   `json:"due_date"`
}

func (h *todoHandlers) Update(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in updateTodoInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	// Only update fields that were provided
	upd := store.TodoUpdate{}
	if in.Title != "" {
		upd.Title = &in.Title
	}
	if in.Status != "" {
		upd.Status = &in.Status
	}
	if in.Priority != "" {
		upd.Priority = &in.Priority
	}
	if in.Tags != nil {
		upd.Tags = &in.Tags
	}
	if in.Notes != "" {
		upd.Notes = &in.Notes
	}
	if in.DueDate != "" {
		t, err := time.Parse(time.RFC3339, in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		upd.DueDate = &t
	}

	todo, err := h.store.UpdateTodo(ctx, h.sessionID, in.ID, upd)
	if err != nil {
		return nil, err
	}
	return jsonResult(toTodoJSON(todo))
}

func (h *todoHandlers) Delete(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
	var in todoIDInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	if err := h.store.DeleteTodo(ctx, h.sessionID, in.ID); err != nil {
		return nil, err
	}
	return jsonResult(map[string]string{"status": "deleted", "id": in.ID})
}

// decodeArgs maps already-validated call arguments onto a typed input struct.
func decodeArgs(args map[string]any, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}

// jsonResult renders v as a single JSON text block.
func jsonResult(v any) (*protocol.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return protocol.TextResult(string(raw)), nil
}
