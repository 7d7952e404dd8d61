package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opsmaestro/maestro/pkg/agent"
)

// Compile-time check that Executor implements agent.ToolExecutor.
var _ agent.ToolExecutor = (*Executor)(nil)

// Executor implements agent.ToolExecutor backed by the registry.
// An optional peer allow-list scopes it to a subset of peers (specialist
// agents use exactly one).
type Executor struct {
	registry *Registry

	// peers restricts which peers this executor may call. nil = all.
	peers []string
}

// NewExecutor creates an executor over the registry, optionally restricted
// to the given peers.
func NewExecutor(registry *Registry, peers []string) *Executor {
	return &Executor{registry: registry, peers: peers}
}

// Execute runs a tool call via MCP.
//
// Flow:
//  1. Normalize tool name (peer__tool → peer.tool)
//  2. Split and validate the qualified name
//  3. Check the peer is in the allow-list
//  4. Parse the argument JSON into map[string]any
//  5. Invoke via the registry's connector
//  6. Extract text content into an agent.ToolResult
//
// Validation and tool failures are returned as result content with IsError
// set, not as Go errors (MCP convention — the model decides how to react).
// Cancellation is the exception and propagates as a Go error.
func (e *Executor) Execute(ctx context.Context, call agent.ToolCall) (*agent.ToolResult, error) {
	name := NormalizeToolName(call.Name)

	peer, _, err := SplitToolName(name)
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	if e.peers != nil && !slices.Contains(e.peers, peer) {
		return errResult(call, fmt.Sprintf(
			"MCP peer %q is not available for this agent. Available peers: %s",
			peer, strings.Join(e.peers, ", "))), nil
	}

	invoker, localName, err := e.registry.Resolve(name)
	if err != nil {
		return errResult(call, err.Error()), nil
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		return errResult(call, fmt.Sprintf("Failed to parse tool arguments: %s", err)), nil
	}

	result, err := invoker.Invoke(ctx, localName, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errResult(call, fmt.Sprintf("MCP tool execution failed: %s", err)), nil
	}

	return &agent.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: extractTextContent(result),
		IsError: result.IsError,
	}, nil
}

// Tools returns the agent-facing tool definitions this executor can serve,
// honoring the peer allow-list. Names stay qualified ("peer.tool").
func (e *Executor) Tools() []agent.ToolDefinition {
	var defs []agent.ToolDefinition
	for _, d := range e.registry.All() {
		if e.peers != nil && !slices.Contains(e.peers, d.Peer) {
			continue
		}
		defs = append(defs, agent.ToolDefinition{
			Name:             d.QualifiedName,
			Description:      d.Description,
			ParametersSchema: d.ParametersSchema,
		})
	}
	return defs
}

func errResult(call agent.ToolCall, content string) *agent.ToolResult {
	return &agent.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: true,
	}
}

// parseArguments decodes the model's JSON argument string.
// Empty input means no arguments.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}

// extractTextContent concatenates all text content items of a result.
// Non-text content (images, embedded resources) is skipped.
func extractTextContent(result *mcpsdk.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
