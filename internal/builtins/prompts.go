// ABOUTME: Built-in prompts rendering the session's todos into LLM-ready messages.
// ABOUTME: plan_day covers open work, triage_todos covers the whole backlog.

package builtins

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/registry"
	"github.com/2389/seance-gateway/internal/store"
)

// Prompts builds the built-in prompt set for one session.
func Prompts(sessionID string, s store.Store) []*registry.PromptEntry {
	return []*registry.PromptEntry{
		{
			Name:        "plan_day",
			Description: "Plan the day around the session's open todos",
			Arguments: []protocol.PromptArgument{
				{Name: "focus", Description: "Area to prioritize, e.g. a tag or project", Required: false},
			},
			Renderer: func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error) {
				todos, err := openTodos(ctx, s, sessionID)
				if err != nil {
					return nil, err
				}

				var b strings.Builder
				b.WriteString("Help me plan my day.\n\n")
				if len(todos) == 0 {
					b.WriteString("I have no open todos.\n")
				} else {
					b.WriteString("My open todos:\n")
					writeTodoLines(&b, todos)
				}
				if focus := args["focus"]; focus != "" {
					fmt.Fprintf(&b, "\nFocus on: %s\n", focus)
				}
				b.WriteString("\nProduce a prioritized plan with a suggested order and rough time blocks.")

				return &protocol.GetPromptResult{
					Description: "Daily planning prompt built from open todos",
					Messages: []protocol.PromptMessage{
						{Role: "user", Content: protocol.Content{Type: "text", Text: b.String()}},
					},
				}, nil
			},
		},
		{
			Name:        "triage_todos",
			Description: "Triage the session's todo backlog",
			Renderer: func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error) {
				todos, err := s.ListTodos(ctx, sessionID, store.TodoFilter{Limit: store.MaxTodoLimit})
				if err != nil {
					return nil, fmt.Errorf("listing todos: %w", err)
				}

				var b strings.Builder
				b.WriteString("Triage my todo backlog.\n\n")
				if len(todos) == 0 {
					b.WriteString("The backlog is empty.\n")
				} else {
					writeTodoLines(&b, todos)
				}
				b.WriteString("\nSort each item into: do now, schedule, delegate, or drop. Justify briefly.")

				return &protocol.GetPromptResult{
					Description: "Backlog triage prompt",
					Messages: []protocol.PromptMessage{
						{Role: "user", Content: protocol.Content{Type: "text", Text: b.String()}},
					},
				}, nil
			},
		},
	}
}

// openTodos lists the session's not-yet-completed todos in insertion order.
func openTodos(ctx context.Context, s store.Store, sessionID string) ([]*store.Todo, error) {
	todos, err := s.ListTodos(ctx, sessionID, store.TodoFilter{Limit: store.MaxTodoLimit})
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	open := todos[:0]
	for _, t := range todos {
		if t.Status != store.StatusCompleted {
			open = append(open, t)
		}
	}
	return open, nil
}

func writeTodoLines(b *strings.Builder, todos []*store.Todo) {
	for _, t := range todos {
		fmt.Fprintf(b, "- [%s] %s (priority: %s", t.Status, t.Title, t.Priority)
		if t.DueDate != nil {
			fmt.Fprintf(b, ", due: %s", t.DueDate.Format("2006-01-02"))
		}
		if len(t.Tags) > 0 {
			fmt.Fprintf(b, ", tags: %s", strings.Join(t.Tags, ","))
		}
		b.WriteString(")\n")
	}
}
