// Package protocol defines the wire types shared across the gateway.
//
// It holds the JSON-RPC 2.0 envelope, the MCP method names and error codes,
// and the request/result shapes for tools, resources, and prompts. The
// package has no behavior beyond small constructors; transport handling
// lives in internal/host and dispatch in internal/session.
package protocol
