package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDescriptor is a registry entry: one tool tagged with its origin peer.
type ToolDescriptor struct {
	// QualifiedName is "peer.tool", unique across the registry.
	QualifiedName string

	// Peer is the owning peer's name; Name the peer-local tool name.
	Peer string
	Name string

	Description string

	// ParametersSchema is the tool input schema as a JSON string.
	ParametersSchema string
}

// Invoker executes a peer-local tool call. Connector implements it; tests
// substitute fakes.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (*mcpsdk.CallToolResult, error)
}

// Registry aggregates tools from all connected peers.
// Built once at startup and read-only afterwards; no locking required.
type Registry struct {
	peers    []string // registration order
	invokers map[string]Invoker
	tools    []ToolDescriptor // registration order
	byName   map[string]int   // qualified name → index into tools
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		invokers: make(map[string]Invoker),
		byName:   make(map[string]int),
		logger:   slog.Default(),
	}
}

// Register adds a peer and its advertised tools.
// A peer with zero tools still registers (and contributes no entries).
// On a qualified-name collision the last registration wins and a warning
// is recorded.
func (r *Registry) Register(peer string, invoker Invoker, tools []*mcpsdk.Tool) {
	r.peers = append(r.peers, peer)
	r.invokers[peer] = invoker

	for _, tool := range tools {
		desc := ToolDescriptor{
			QualifiedName:    fmt.Sprintf("%s.%s", peer, tool.Name),
			Peer:             peer,
			Name:             tool.Name,
			Description:      tool.Description,
			ParametersSchema: marshalSchema(tool.InputSchema),
		}
		if idx, exists := r.byName[desc.QualifiedName]; exists {
			r.logger.Warn("Tool name collision, last registration wins",
				"tool", desc.QualifiedName)
			r.tools[idx] = desc
			continue
		}
		r.byName[desc.QualifiedName] = len(r.tools)
		r.tools = append(r.tools, desc)
	}
}

// Peers returns the registered peer names in registration order.
func (r *Registry) Peers() []string {
	return append([]string(nil), r.peers...)
}

// All returns every tool descriptor in registration order.
func (r *Registry) All() []ToolDescriptor {
	return append([]ToolDescriptor(nil), r.tools...)
}

// ForPeer returns the descriptors originating from one peer.
func (r *Registry) ForPeer(peer string) []ToolDescriptor {
	var out []ToolDescriptor
	for _, d := range r.tools {
		if d.Peer == peer {
			out = append(out, d)
		}
	}
	return out
}

// Resolve maps a qualified name to its invoker and peer-local tool name.
func (r *Registry) Resolve(qualifiedName string) (Invoker, string, error) {
	idx, ok := r.byName[qualifiedName]
	if !ok {
		return nil, "", fmt.Errorf("unknown tool %q", qualifiedName)
	}
	desc := r.tools[idx]
	invoker, ok := r.invokers[desc.Peer]
	if !ok {
		return nil, "", fmt.Errorf("no invoker for peer %q", desc.Peer)
	}
	return invoker, desc.Name, nil
}

// marshalSchema serializes a tool's InputSchema to a JSON string.
func marshalSchema(schema any) string {
	if schema == nil {
		return ""
	}
	data, err := json.Marshal(schema)
	if err != nil {
		slog.Debug("Failed to marshal tool input schema", "error", err)
		return ""
	}
	return string(data)
}
