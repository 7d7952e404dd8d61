// Package llm defines the provider-agnostic chat client used by the agent
// runtime, plus an implementation backed by an OpenAI-compatible chat
// completions API.
package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its tool result message.
	ID string

	// Name is the tool name as presented to the model.
	Name string

	// Arguments is the raw JSON argument string from the model.
	Arguments string
}

// Message is one entry in the conversation thread sent to the model.
type Message struct {
	Role    Role
	Content string

	// ToolCalls is set on assistant messages that requested tool use.
	ToolCalls []ToolCall

	// ToolCallID is set on tool messages and references the originating call.
	ToolCallID string
}

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string

	// ParametersSchema is the JSON schema of the tool input, as a JSON string.
	// Empty means the tool takes no parameters.
	ParametersSchema string
}

// Request is a single chat completion request.
type Request struct {
	// Model overrides the client default when non-empty.
	Model string

	// Instruction is the system prompt for this turn.
	Instruction string

	Messages []Message
	Tools    []ToolDefinition
}

// Completion is the model's reply: final text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Client produces chat completions. Implementations must be safe for
// concurrent use; the parallel RCA coordinator calls Complete from
// multiple goroutines.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Completion, error)
}
