// Package provider connects a session unit to external MCP tool providers.
//
// # Overview
//
// An Aggregator owns one connection per configured provider. During session
// initialization it dials all providers concurrently, discovers their tools,
// and registers each tool in the unit registry as a proxy entry whose handler
// forwards calls to the owning provider.
//
// # Transports
//
// A provider is reached over one of three transports, fixed by configuration
// and never probed:
//
//   - streamable-http: the MCP streamable HTTP transport
//   - sse: the legacy SSE transport
//   - binding: an in-process MCP server resolved by binding reference
//
// # Lifecycle
//
// Each provider moves through connecting, discovering, and then either ready
// or failed. Transitions are strictly linear and there are no retries; a
// failed provider stays failed until its session unit is recreated. One
// provider's failure never affects the others, so a unit routinely runs with
// partial availability.
//
// Discovery initializes the client, checks the advertised tool capability
// (no capability settles ready with zero tools), then pages through the
// provider's tool listing following nextCursor until exhausted.
//
// # Proxying
//
// Proxy handlers pass arguments through unchanged and map results back
// preserving text content and the error flag. Cancelling the caller's
// context cancels the in-flight provider call.
package provider
