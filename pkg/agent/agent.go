// Package agent holds the agent definitions (main orchestrator plus one
// specialist per MCP peer), their instruction templates, the per-session
// runtime memory, and the run loop driving the LLM through tool calls.
package agent

import (
	"context"
	"strings"
)

// ToolDefinition describes a callable tool as seen by an agent.
// Name is the qualified "peer.tool" form.
type ToolDefinition struct {
	Name             string
	Description      string
	ParametersSchema string
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the outcome of executing a ToolCall.
// Execution failures are carried in Content with IsError set, not as Go
// errors (MCP convention — the model decides whether to retry).
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ToolExecutor executes tool calls on behalf of an agent run.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
}

// Definition is a stateless agent: instruction, tool set, model.
// All conversational state lives in Memory and the session store.
type Definition struct {
	Name        string
	Model       string
	Description string
	Instruction string
	Tools       []ToolDefinition
}

// llmToolName converts a qualified "peer.tool" name to the "peer__tool"
// form accepted by model function-name charsets.
func llmToolName(name string) string {
	return strings.Replace(name, ".", "__", 1)
}

// canonicalToolName reverses llmToolName for event reporting.
func canonicalToolName(name string) string {
	if strings.Contains(name, "__") && !strings.Contains(name, ".") {
		return strings.Replace(name, "__", ".", 1)
	}
	return name
}
