// Package registry tracks the tools, resources, and prompts exposed to a session.
//
// # Overview
//
// Each session owns one Registry. It is populated at session initialization
// with the built-in toolsets (see internal/builtins) and with tools discovered
// from configured upstream providers (see internal/provider). Listings are
// served from it, and tool calls resolve their handler through it.
//
// # Tools
//
// Tools are registered as ToolEntry values carrying a name, a JSON Schema for
// their arguments, an origin, and a Handler. Names share a single flat
// namespace. When two registrations collide on a name, the later one wins and
// the replacement is logged with both origins; the tool keeps its original
// position in listings.
//
// Listings preserve registration order:
//
//	reg := registry.NewRegistry(logger)
//	reg.RegisterTool(&registry.ToolEntry{Name: "echo", Origin: registry.OriginLocal, ...})
//	tools := reg.ListTools() // insertion order, rebuilt per call
//
// # Argument Validation
//
// Each tool's input schema is compiled at registration. Before a handler runs,
// the session validates the call arguments:
//
//	issues := entry.Validate(ctx, args)
//	if len(issues) > 0 {
//		// reject the call, handler never runs
//	}
//
// A tool with no schema, or with a schema that fails to compile, accepts any
// arguments. Compile failures are logged and the raw schema is still served in
// listings.
//
// # Resources and Prompts
//
// Resources are registered either under an exact URI or under an RFC 6570 URI
// template such as "seance://todos/{id}". ResolveResource prefers exact
// matches, then tries templates in registration order, extracting template
// variables as params for the reader. Prompts follow the same
// register/lookup/list shape as tools.
//
// # Concurrency
//
// All methods are safe for concurrent use. Providers register tools from
// their own goroutines during session initialization.
package registry
