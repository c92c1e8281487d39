// ABOUTME: Tests for todos toolset handlers.
// ABOUTME: Uses a real SQLite store for integration testing.

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/2389/seance-gateway/internal/registry"
	"github.com/2389/seance-gateway/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func findTool(tools []*registry.ToolEntry, name string) *registry.ToolEntry {
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	return nil
}

// callTool invokes a tool handler and decodes its JSON text result.
func callTool(t *testing.T, tools []*registry.ToolEntry, name string, args map[string]any) map[string]any {
	t.Helper()
	tool := findTool(tools, name)
	if tool == nil {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), args)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("%s: expected one content block, got %d", name, len(result.Content))
	}
	var resp map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].Text), &resp); err != nil {
		t.Fatalf("unmarshal %s result: %v", name, err)
	}
	return resp
}

func TestTodoRoundTrip(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	created := callTool(t, tools, "create_todo", map[string]any{
		"title":  "Buy milk",
		"status": "not_started",
	})
	todoID, _ := created["id"].(string)
	if todoID == "" {
		t.Fatal("expected generated id in create result")
	}

	listed := callTool(t, tools, "list_todos", map[string]any{})
	if listed["count"].(float64) != 1 {
		t.Fatalf("expected 1 todo, got %v", listed["count"])
	}
	first := listed["todos"].([]any)[0].(map[string]any)
	if first["title"] != "Buy milk" {
		t.Errorf("expected title 'Buy milk', got %v", first["title"])
	}

	got := callTool(t, tools, "get_todo", map[string]any{"id": todoID})
	if got["title"] != "Buy milk" {
		t.Errorf("expected title 'Buy milk', got %v", got["title"])
	}

	deleted := callTool(t, tools, "delete_todo", map[string]any{"id": todoID})
	if deleted["status"] != "deleted" {
		t.Errorf("unexpected delete status: %v", deleted["status"])
	}

	getTool := findTool(tools, "get_todo")
	_, err := getTool.Handler(context.Background(), map[string]any{"id": todoID})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateTodoDefaults(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	created := callTool(t, tools, "create_todo", map[string]any{"title": "minimal"})
	if created["status"] != "not_started" {
		t.Errorf("expected default status not_started, got %v", created["status"])
	}
	if created["priority"] != "medium" {
		t.Errorf("expected default priority medium, got %v", created["priority"])
	}
}

func TestCreateTodoInvalidDueDate(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	tool := findTool(tools, "create_todo")
	_, err := tool.Handler(context.Background(), map[string]any{
		"title":    "bad date",
		"due_date": "tomorrow-ish",
	})
	if err == nil {
		t.Fatal("expected error for unparseable due_date")
	}
}

func TestListTodosPagination(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	for i := 0; i < 5; i++ {
		callTool(t, tools, "create_todo", map[string]any{"title": fmt.Sprintf("task %d", i)})
	}

	page := callTool(t, tools, "list_todos", map[string]any{"limit": 2, "offset": 0})
	if page["count"].(float64) != 2 {
		t.Fatalf("expected 2 todos on first page, got %v", page["count"])
	}
	titles := page["todos"].([]any)
	if titles[0].(map[string]any)["title"] != "task 0" || titles[1].(map[string]any)["title"] != "task 1" {
		t.Errorf("unexpected first page order: %v", titles)
	}

	last := callTool(t, tools, "list_todos", map[string]any{"limit": 2, "offset": 4})
	if last["count"].(float64) != 1 {
		t.Fatalf("expected 1 todo on last page, got %v", last["count"])
	}
	if last["todos"].([]any)[0].(map[string]any)["title"] != "task 4" {
		t.Errorf("unexpected last page contents: %v", last["todos"])
	}
}

func TestUpdateTodoPartial(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	created := callTool(t, tools, "create_todo", map[string]any{
		"title": "write report",
		"tags":  []string{"work"},
	})
	todoID := created["id"].(string)

	updated := callTool(t, tools, "update_todo", map[string]any{
		"id":     todoID,
		"status": "in_progress",
	})
	if updated["status"] != "in_progress" {
		t.Errorf("expected status in_progress, got %v", updated["status"])
	}
	if updated["title"] != "write report" {
		t.Errorf("title should be unchanged, got %v", updated["title"])
	}
	if tags := updated["tags"].([]any); len(tags) != 1 || tags[0] != "work" {
		t.Errorf("tags should be unchanged, got %v", updated["tags"])
	}

	// An explicit empty tag list clears the tags
	cleared := callTool(t, tools, "update_todo", map[string]any{
		"id":   todoID,
		"tags": []string{},
	})
	if _, present := cleared["tags"]; present {
		t.Errorf("expected tags cleared, got %v", cleared["tags"])
	}
}

func TestUpdateTodoNotFound(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	tool := findTool(tools, "update_todo")
	_, err := tool.Handler(context.Background(), map[string]any{
		"id":     "no-such-id",
		"status": "completed",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTodoSessionScoping(t *testing.T) {
	s := newTestStore(t)
	sesA := TodoTools("ses-a", s)
	sesB := TodoTools("ses-b", s)

	created := callTool(t, sesA, "create_todo", map[string]any{"title": "a's todo"})
	todoID := created["id"].(string)

	listed := callTool(t, sesB, "list_todos", map[string]any{})
	if listed["count"].(float64) != 0 {
		t.Errorf("session b should see no todos, got %v", listed["count"])
	}

	getTool := findTool(sesB, "get_todo")
	_, err := getTool.Handler(context.Background(), map[string]any{"id": todoID})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across sessions, got %v", err)
	}
}

func TestListTodosFilterSurface(t *testing.T) {
	s := newTestStore(t)
	tools := TodoTools("ses-1", s)

	callTool(t, tools, "create_todo", map[string]any{"title": "ship release", "status": "in_progress", "tags": []string{"work"}})
	callTool(t, tools, "create_todo", map[string]any{"title": "water plants", "tags": []string{"home"}})

	byStatus := callTool(t, tools, "list_todos", map[string]any{"status": "in_progress"})
	if byStatus["count"].(float64) != 1 {
		t.Errorf("status filter: expected 1, got %v", byStatus["count"])
	}

	byTag := callTool(t, tools, "list_todos", map[string]any{"tag": "home"})
	if byTag["count"].(float64) != 1 {
		t.Errorf("tag filter: expected 1, got %v", byTag["count"])
	}

	bySearch := callTool(t, tools, "list_todos", map[string]any{"search": "release"})
	if bySearch["count"].(float64) != 1 {
		t.Errorf("search filter: expected 1, got %v", bySearch["count"])
	}

	sorted := callTool(t, tools, "list_todos", map[string]any{"sort_by": "title", "sort_direction": "desc"})
	first := sorted["todos"].([]any)[0].(map[string]any)
	if first["title"] != "water plants" {
		t.Errorf("descending title sort: expected 'water plants' first, got %v", first["title"])
	}
}
