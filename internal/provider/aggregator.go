// ABOUTME: Aggregates tools from configured external MCP providers into a registry
// ABOUTME: Dials concurrently, pages through tool listings, and registers proxy handlers

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/2389/seance-gateway/internal/config"
	"github.com/2389/seance-gateway/internal/protocol"
	"github.com/2389/seance-gateway/internal/registry"
)

const clientName = "seance-gateway"

// Aggregator connects a session unit to its configured external providers
// and registers every discovered tool as a proxy entry in the unit registry.
type Aggregator struct {
	registry *registry.Registry
	bindings map[string]Binding
	logger   *slog.Logger

	mu        sync.Mutex
	providers []*Provider
}

// NewAggregator creates an aggregator that registers discovered tools into reg.
// The bindings map resolves binding references for in-process providers.
func NewAggregator(reg *registry.Registry, bindings map[string]Binding, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		registry: reg,
		bindings: bindings,
		logger:   logger.With("component", "provider"),
	}
}

// ConnectAll dials every configured provider concurrently and returns once
// each has settled ready or failed. A provider failure never aborts the
// others; the caller decides nothing here, partial availability is normal.
func (a *Aggregator) ConnectAll(ctx context.Context, configs []config.ProviderConfig) {
	var wg sync.WaitGroup
	for i := range configs {
		cfg := configs[i]
		p := newProvider(cfg.Name, cfg.Kind())

		a.mu.Lock()
		a.providers = append(a.providers, p)
		a.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.connect(ctx, p, cfg)
		}()
	}
	wg.Wait()
}

// Statuses returns a snapshot of every provider attached to this aggregator.
func (a *Aggregator) Statuses() []Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	statuses := make([]Status, 0, len(a.providers))
	for _, p := range a.providers {
		statuses = append(statuses, p.status())
	}
	return statuses
}

// Close closes every provider connection. Safe to call once discovery has
// finished; typically driven by session unit shutdown.
func (a *Aggregator) Close() {
	a.mu.Lock()
	providers := a.providers
	a.mu.Unlock()
	for _, p := range providers {
		p.close()
	}
}

// connect drives one provider through its full lifecycle. Every failure
// lands in p.fail and is logged; nothing propagates to the caller.
func (a *Aggregator) connect(ctx context.Context, p *Provider, cfg config.ProviderConfig) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	a.logger.Debug("connecting to provider", "provider", p.name, "transport", p.kind)

	c, err := a.dial(cfg)
	if err != nil {
		a.failProvider(p, err)
		return
	}
	p.setClient(c)

	if err := c.Start(ctx); err != nil {
		a.failProvider(p, fmt.Errorf("starting transport: %w", err))
		return
	}

	var initReq mcp.InitializeRequest
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "1.0.0"}
	initRes, err := c.Initialize(ctx, initReq)
	if err != nil {
		a.failProvider(p, fmt.Errorf("initializing: %w", err))
		return
	}

	if initRes.Capabilities.Tools == nil {
		// No tool capability advertised. The provider is still healthy,
		// it just contributes nothing.
		p.settle(0)
		a.logger.Info("provider ready", "provider", p.name, "tools", 0)
		return
	}

	p.setState(StateDiscovering)
	count, err := a.discover(ctx, p, c)
	if err != nil {
		a.failProvider(p, err)
		return
	}

	p.settle(count)
	a.logger.Info("provider ready", "provider", p.name, "tools", count)
}

func (a *Aggregator) failProvider(p *Provider, err error) {
	p.fail(err)
	p.close()
	a.logger.Warn("provider failed", "provider", p.name, "error", err)
}

// dial builds the mcp-go client for the provider's transport. The transport
// kind is taken from configuration, never probed.
func (a *Aggregator) dial(cfg config.ProviderConfig) (*mcpclient.Client, error) {
	switch cfg.Kind() {
	case config.TransportStreamableHTTP:
		c, err := mcpclient.NewStreamableHttpClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("creating streamable http client: %w", err)
		}
		return c, nil
	case config.TransportSSE:
		c, err := mcpclient.NewSSEMCPClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("creating sse client: %w", err)
		}
		return c, nil
	case config.TransportBinding:
		binding, ok := a.bindings[cfg.Binding]
		if !ok {
			return nil, fmt.Errorf("unknown binding %q", cfg.Binding)
		}
		srv, err := binding()
		if err != nil {
			return nil, fmt.Errorf("constructing binding %q: %w", cfg.Binding, err)
		}
		c, err := mcpclient.NewInProcessClient(srv)
		if err != nil {
			return nil, fmt.Errorf("creating in-process client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind())
	}
}

// discover pages through the provider's tool listing, following nextCursor
// until the provider stops returning one, and registers each tool.
func (a *Aggregator) discover(ctx context.Context, p *Provider, c *mcpclient.Client) (int, error) {
	count := 0
	var cursor mcp.Cursor
	for {
		var req mcp.ListToolsRequest
		req.Params.Cursor = cursor
		page, err := c.ListTools(ctx, req)
		if err != nil {
			return count, fmt.Errorf("listing tools: %w", err)
		}

		for _, tool := range page.Tools {
			a.registry.RegisterTool(&registry.ToolEntry{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: toolSchema(tool),
				Origin:      p.name,
				Handler:     proxyHandler(c, tool.Name),
			})
			count++
		}

		if page.NextCursor == "" {
			return count, nil
		}
		cursor = page.NextCursor
	}
}

// toolSchema serializes the provider's declared input schema so the registry
// can compile it and serve it in listings.
func toolSchema(tool mcp.Tool) json.RawMessage {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil
	}
	return raw
}

// proxyHandler forwards a tool call to the owning provider. Arguments pass
// through unchanged and the provider's result maps back unchanged.
func proxyHandler(c *mcpclient.Client, name string) registry.Handler {
	return func(ctx context.Context, args map[string]any) (*protocol.CallToolResult, error) {
		var req mcp.CallToolRequest
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := c.CallTool(ctx, req)
		if err != nil {
			return nil, err
		}
		return mapResult(res), nil
	}
}

// mapResult converts a provider tool result into the gateway's wire shape.
// Text content and the error flag survive; other content kinds are dropped.
func mapResult(res *mcp.CallToolResult) *protocol.CallToolResult {
	out := &protocol.CallToolResult{
		Content: []protocol.Content{},
		IsError: res.IsError,
	}
	for _, item := range res.Content {
		if text, ok := item.(mcp.TextContent); ok {
			out.Content = append(out.Content, protocol.Content{Type: "text", Text: text.Text})
		}
	}
	return out
}
