// Package host routes MCP Streamable HTTP traffic to per-session
// execution units.
//
// The host owns exactly two pieces of state: the id-to-unit table and
// the idle janitor. Everything session-scoped lives inside
// [session.Unit]. A request carrying an unknown id gets a cold unit on
// the spot, and a request carrying no id gets a generated UUID stamped
// into the Mcp-Session-Id response header. Malformed ids are rejected
// with HTTP 400 before any unit is touched.
//
// POST carries JSON-RPC messages, DELETE terminates a session, and GET
// is refused because server-initiated streams are served elsewhere. The
// janitor evicts units idle past the configured timeout; their durable
// state stays in the store, so the next request simply rebuilds the
// unit.
package host
