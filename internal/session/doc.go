// Package session implements the per-session execution unit.
//
// # Overview
//
// The host routes every request for a session id to exactly one Unit. A
// unit owns the session's complete state: its tool/resource/prompt registry,
// its provider connections, and its view of the store. Units share nothing;
// two sessions never observe each other.
//
// # Initialization
//
// A unit is created cold and initializes on its first Handle call, inside a
// single blocking critical section. Initialization registers the built-in
// toolsets, resources, and prompts, then connects every configured provider
// and waits for each to settle ready or failed. Concurrent requests block
// until the section completes; after that, dispatch takes only read locks.
// The state machine is uninitialized, initializing, ready. Because a unit
// rebuilds identical state from configuration and storage, eviction followed
// by a cold start is invisible to clients beyond latency.
//
// # Dispatch
//
// Handle speaks JSON-RPC: initialize, ping, tools/list, tools/call,
// resources/list, resources/read, prompts/list, and prompts/get. Unknown
// methods answer -32601. Notifications return a nil response so the
// transport can answer 202 with no body.
//
// Tool calls are validated against the tool's input schema before the
// handler runs; violations answer -32602 with the offending field paths.
// Handler errors become error-flagged results rather than protocol errors,
// so a failed call never poisons the session. Every call lands one row in
// the audit log with its outcome and duration.
package session
