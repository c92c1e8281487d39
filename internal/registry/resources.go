// ABOUTME: Resource and prompt registration for the session registry
// ABOUTME: Static URIs, URI templates for parameterized reads, and named prompts

package registry

import (
	"context"
	"fmt"

	"github.com/yosida95/uritemplate/v3"

	"github.com/2389/seance-gateway/internal/protocol"
)

// ResourceReader produces the contents for a resources/read call. For
// template-backed resources, params carries the values extracted from
// the URI.
type ResourceReader func(ctx context.Context, uri string, params map[string]string) (*protocol.ReadResourceResult, error)

// ResourceEntry is a static resource with a fixed URI.
type ResourceEntry struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Reader      ResourceReader
}

// ResourceTemplate serves a family of URIs described by an RFC 6570
// template such as seance://todos/{id}.
type ResourceTemplate struct {
	Pattern string
	Reader  ResourceReader

	tmpl *uritemplate.Template
}

// RegisterResource adds a static resource. Registering a URI that already
// exists replaces the previous entry, keeping its listing position.
func (r *Registry) RegisterResource(entry *ResourceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[entry.URI]; exists {
		r.logger.Warn("resource URI collision, replacing previous registration",
			"uri", entry.URI)
		r.resources[entry.URI] = entry
		return
	}
	r.resources[entry.URI] = entry
	r.resOrder = append(r.resOrder, entry.URI)
}

// RegisterResourceTemplate adds a parameterized resource family. Returns
// an error when the pattern is not a valid URI template.
func (r *Registry) RegisterResourceTemplate(rt *ResourceTemplate) error {
	tmpl, err := uritemplate.New(rt.Pattern)
	if err != nil {
		return fmt.Errorf("parsing resource template %q: %w", rt.Pattern, err)
	}
	rt.tmpl = tmpl

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, rt)
	return nil
}

// ListResources returns descriptors for static resources in registration
// order. Template families are read surfaces only and are not listed.
func (r *Registry) ListResources() []protocol.ResourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]protocol.ResourceInfo, 0, len(r.resOrder))
	for _, uri := range r.resOrder {
		entry := r.resources[uri]
		infos = append(infos, protocol.ResourceInfo{
			URI:         entry.URI,
			Name:        entry.Name,
			Description: entry.Description,
			MIMEType:    entry.MIMEType,
		})
	}
	return infos
}

// ResolveResource finds the reader for a URI: exact matches first, then
// templates in registration order.
func (r *Registry) ResolveResource(uri string) (ResourceReader, map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.resources[uri]; ok {
		return entry.Reader, nil, nil
	}

	for _, rt := range r.templates {
		values := rt.tmpl.Match(uri)
		if values == nil {
			continue
		}
		params := make(map[string]string, len(values))
		for name, value := range values {
			params[name] = value.String()
		}
		return rt.Reader, params, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}

// PromptRenderer produces the messages for a prompts/get call.
type PromptRenderer func(ctx context.Context, args map[string]string) (*protocol.GetPromptResult, error)

// PromptEntry is a named prompt with declared arguments.
type PromptEntry struct {
	Name        string
	Description string
	Arguments   []protocol.PromptArgument
	Renderer    PromptRenderer
}

// RegisterPrompt adds a prompt. Registering a name that already exists
// replaces the previous entry, keeping its listing position.
func (r *Registry) RegisterPrompt(entry *PromptEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prompts[entry.Name]; exists {
		r.logger.Warn("prompt name collision, replacing previous registration",
			"prompt", entry.Name)
		r.prompts[entry.Name] = entry
		return
	}
	r.prompts[entry.Name] = entry
	r.promptOrder = append(r.promptOrder, entry.Name)
}

// LookupPrompt finds a prompt by name.
func (r *Registry) LookupPrompt(name string) (*PromptEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.prompts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}
	return entry, nil
}

// ListPrompts returns descriptors for every prompt in registration order.
func (r *Registry) ListPrompts() []protocol.PromptInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]protocol.PromptInfo, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		entry := r.prompts[name]
		infos = append(infos, protocol.PromptInfo{
			Name:        entry.Name,
			Description: entry.Description,
			Arguments:   entry.Arguments,
		})
	}
	return infos
}
