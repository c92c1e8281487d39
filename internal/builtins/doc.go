// Package builtins provides the locally registered toolsets, resources, and
// prompts every session carries.
//
// # Overview
//
// Built-in tools are gateway-provided and need no external providers. They
// are constructed per session, scoped to that session's store rows, and
// registered into the unit registry during initialization before provider
// discovery runs. A provider tool with the same name therefore replaces the
// built-in (last registration wins).
//
// # Toolsets
//
// Todos toolset:
//
//   - create_todo: Create a todo (title, status, priority, tags, notes, due date)
//   - get_todo: Fetch one todo by id
//   - list_todos: List todos with search, status/tag filters, date range,
//     sorting, and limit/offset pagination
//   - update_todo: Partially update a todo; omitted fields stay unchanged
//   - delete_todo: Delete a todo by id
//
// System toolset:
//
//   - echo: Return the given text
//   - session_info: Snapshot of the session unit (id, state, age, tool count)
//
// # Resources
//
//   - seance://session: session unit snapshot (JSON)
//   - seance://todos/stats: todo counts by status
//   - seance://todos/{id}: one todo, resolved through the URI template
//
// # Prompts
//
//   - plan_day: renders open todos into a daily planning prompt; takes an
//     optional "focus" argument
//   - triage_todos: renders the whole backlog for triage
//
// # Registration
//
// The session unit wires everything during initialization:
//
//	for _, tool := range builtins.TodoTools(sessionID, st) {
//		reg.RegisterTool(tool)
//	}
//	for _, tool := range builtins.SystemTools(infoFn) {
//		reg.RegisterTool(tool)
//	}
//	entries, templates := builtins.Resources(sessionID, st, infoFn)
//
// # Tool Implementation
//
// Each handler decodes its arguments into a typed input struct and returns
// a single JSON text block. Handlers return plain errors; the dispatch
// boundary converts them into error-flagged results.
package builtins
