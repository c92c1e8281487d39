// ABOUTME: Tests for resource and prompt registration and URI resolution
// ABOUTME: Covers exact URIs, URI templates with parameters, and not-found errors

package registry

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/2389/seance-gateway/internal/protocol"
)

// testResource creates a ResourceEntry whose reader echoes the entry
// name, so resolution targets stay distinguishable through the reader.
func testResource(uri, name string) *ResourceEntry {
	return &ResourceEntry{
		URI:      uri,
		Name:     name,
		MIMEType: "application/json",
		Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{
				Contents: []protocol.ResourceContents{
					{URI: uri, MIMEType: "application/json", Text: name},
				},
			}, nil
		},
	}
}

// readText resolves contents through a reader and returns the text of
// the single contents entry.
func readText(t *testing.T, reader ResourceReader, uri string, params map[string]string) string {
	t.Helper()
	result, err := reader(context.Background(), uri, params)
	if err != nil {
		t.Fatalf("unexpected reader error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected one contents entry, got %d", len(result.Contents))
	}
	return result.Contents[0].Text
}

func TestRegistryResources(t *testing.T) {
	t.Run("lists resources in registration order", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		reg.RegisterResource(testResource("seance://session", "session"))
		reg.RegisterResource(testResource("seance://todos/stats", "stats"))

		resources := reg.ListResources()
		if len(resources) != 2 {
			t.Fatalf("expected 2 resources, got %d", len(resources))
		}
		if resources[0].URI != "seance://session" || resources[1].URI != "seance://todos/stats" {
			t.Errorf("unexpected order: %v, %v", resources[0].URI, resources[1].URI)
		}
	})

	t.Run("resolves exact URI", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		reg.RegisterResource(testResource("seance://session", "session"))

		reader, params, err := reg.ResolveResource("seance://session")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(params) != 0 {
			t.Errorf("exact match should carry no params, got %v", params)
		}
		if got := readText(t, reader, "seance://session", params); got != "session" {
			t.Errorf("expected resource 'session', got %q", got)
		}
	})

	t.Run("resolves template URI with parameters", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		var gotURI string
		err := reg.RegisterResourceTemplate(&ResourceTemplate{
			Pattern: "seance://todos/{id}",
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				gotURI = uri
				return &protocol.ReadResourceResult{}, nil
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reader, params, err := reg.ResolveResource("seance://todos/abc-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params["id"] != "abc-123" {
			t.Errorf("expected id param 'abc-123', got %q", params["id"])
		}

		if _, err := reader(context.Background(), "seance://todos/abc-123", params); err != nil {
			t.Fatalf("unexpected reader error: %v", err)
		}
		if gotURI != "seance://todos/abc-123" {
			t.Errorf("reader should receive the concrete URI, got %q", gotURI)
		}
	})

	t.Run("exact match beats template", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		if err := reg.RegisterResourceTemplate(&ResourceTemplate{
			Pattern: "seance://todos/{id}",
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				return &protocol.ReadResourceResult{
					Contents: []protocol.ResourceContents{
						{URI: uri, Text: "template"},
					},
				}, nil
			},
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		reg.RegisterResource(testResource("seance://todos/stats", "stats"))

		reader, params, err := reg.ResolveResource("seance://todos/stats")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(params) != 0 {
			t.Errorf("exact match should carry no params, got %v", params)
		}
		if got := readText(t, reader, "seance://todos/stats", params); got != "stats" {
			t.Errorf("expected exact resource to win, got %q", got)
		}
	})

	t.Run("unknown URI returns ErrResourceNotFound", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		reg.RegisterResource(testResource("seance://session", "session"))

		_, _, err := reg.ResolveResource("seance://nope")
		if !errors.Is(err, ErrResourceNotFound) {
			t.Fatalf("expected ErrResourceNotFound, got %v", err)
		}
	})

	t.Run("invalid template pattern is rejected", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		err := reg.RegisterResourceTemplate(&ResourceTemplate{
			Pattern: "seance://todos/{",
			Reader: func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
				return &protocol.ReadResourceResult{}, nil
			},
		})
		if err == nil {
			t.Fatal("expected error for malformed template")
		}
	})
}

func TestRegistryPrompts(t *testing.T) {
	newPrompt := func(name string) *PromptEntry {
		return &PromptEntry{
			Name:        name,
			Description: "prompt " + name,
			Arguments: []protocol.PromptArgument{
				{Name: "focus", Description: "area to focus on", Required: false},
			},
			Renderer: func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error) {
				return &protocol.GetPromptResult{
					Messages: []protocol.PromptMessage{
						{Role: "user", Content: protocol.Content{Type: "text", Text: name}},
					},
				}, nil
			},
		}
	}

	t.Run("registers and looks up prompt", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		reg.RegisterPrompt(newPrompt("plan_day"))

		entry, err := reg.LookupPrompt("plan_day")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Name != "plan_day" {
			t.Errorf("expected 'plan_day', got %q", entry.Name)
		}
	})

	t.Run("lookup of unknown prompt returns ErrPromptNotFound", func(t *testing.T) {
		reg := NewRegistry(slog.Default())

		_, err := reg.LookupPrompt("ghost")
		if !errors.Is(err, ErrPromptNotFound) {
			t.Fatalf("expected ErrPromptNotFound, got %v", err)
		}
	})

	t.Run("lists prompts in registration order", func(t *testing.T) {
		reg := NewRegistry(slog.Default())
		reg.RegisterPrompt(newPrompt("plan_day"))
		reg.RegisterPrompt(newPrompt("triage_todos"))

		prompts := reg.ListPrompts()
		if len(prompts) != 2 {
			t.Fatalf("expected 2 prompts, got %d", len(prompts))
		}
		if prompts[0].Name != "plan_day" || prompts[1].Name != "triage_todos" {
			t.Errorf("unexpected order: %v, %v", prompts[0].Name, prompts[1].Name)
		}
	})
}
