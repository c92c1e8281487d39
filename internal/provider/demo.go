// ABOUTME: Demo MCP server used by the built-in binding and the fake-provider command
// ABOUTME: Exposes echo, add, and fail tools for development and tests

package provider

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DemoBindingName is the binding reference the gateway registers by default,
// so a config can attach the demo provider with `binding: demo`.
const DemoBindingName = "demo"

// NewDemoServer builds the demo MCP server. cmd/fake-provider serves it over
// the network; the `demo` binding runs it in process.
func NewDemoServer(name, version string) *server.MCPServer {
	srv := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv.AddTool(
		mcp.NewTool("echo",
			mcp.WithDescription("Echo the given text back to the caller."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to echo")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := request.RequireString("text")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(text), nil
		},
	)

	srv.AddTool(
		mcp.NewTool("add",
			mcp.WithDescription("Add two numbers and return the sum."),
			mcp.WithNumber("a", mcp.Required(), mcp.Description("First addend")),
			mcp.WithNumber("b", mcp.Required(), mcp.Description("Second addend")),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			a, err := request.RequireFloat("a")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			b, err := request.RequireFloat("b")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("%g", a+b)), nil
		},
	)

	srv.AddTool(
		mcp.NewTool("fail",
			mcp.WithDescription("Always return an error-flagged result. Useful for exercising error paths."),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("fail tool invoked"), nil
		},
	)

	return srv
}

// DemoBindings returns the default binding set for a gateway.
func DemoBindings() map[string]Binding {
	return map[string]Binding{
		DemoBindingName: func() (*server.MCPServer, error) {
			return NewDemoServer("demo", "1.0.0"), nil
		},
	}
}
