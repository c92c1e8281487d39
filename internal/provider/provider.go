// ABOUTME: External tool provider connections and their lifecycle state
// ABOUTME: Each provider moves connecting -> discovering -> ready or failed, no retries

package provider

import (
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/server"
)

// Provider connection states. Transitions are strictly linear and a failed
// provider stays failed for the lifetime of its session unit.
const (
	StateConnecting  = "connecting"
	StateDiscovering = "discovering"
	StateReady       = "ready"
	StateFailed      = "failed"
)

// Binding constructs the in-process MCP server behind a binding reference.
// Bindings let a provider run inside the gateway process instead of over
// the network.
type Binding func() (*server.MCPServer, error)

// Provider is one external tool provider attached to a session unit.
type Provider struct {
	name string
	kind string

	mu     sync.Mutex
	state  string
	err    error
	tools  int
	client *mcpclient.Client
}

func newProvider(name, kind string) *Provider {
	return &Provider{name: name, kind: kind, state: StateConnecting}
}

// Name returns the configured provider name.
func (p *Provider) Name() string { return p.name }

// State returns the provider's current connection state.
func (p *Provider) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure that moved the provider into StateFailed, if any.
func (p *Provider) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// ToolCount returns the number of tools discovered from this provider.
func (p *Provider) ToolCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tools
}

func (p *Provider) setState(state string) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func (p *Provider) setClient(c *mcpclient.Client) {
	p.mu.Lock()
	p.client = c
	p.mu.Unlock()
}

func (p *Provider) settle(tools int) {
	p.mu.Lock()
	p.state = StateReady
	p.tools = tools
	p.mu.Unlock()
}

func (p *Provider) fail(err error) {
	p.mu.Lock()
	p.state = StateFailed
	p.err = err
	p.mu.Unlock()
}

func (p *Provider) close() {
	p.mu.Lock()
	c := p.client
	p.client = nil
	p.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// Status is a point-in-time snapshot of a provider, safe to serialize.
type Status struct {
	Name      string `json:"name"`
	Transport string `json:"transport"`
	State     string `json:"state"`
	Tools     int    `json:"tools"`
	Error     string `json:"error,omitempty"`
}

func (p *Provider) status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Status{Name: p.name, Transport: p.kind, State: p.state, Tools: p.tools}
	if p.err != nil {
		s.Error = p.err.Error()
	}
	return s
}
