// Package events defines the in-process event union produced during a chat
// turn and the bridge that converts it into the canonical outbound frames
// served over SSE.
package events

// Event is a tagged union of everything an agent run can emit.
// Implementations are value types; the marker method pins the set.
type Event interface {
	eventType() string
}

// Status is a human-readable progress line, passed through to the client.
type Status struct {
	Text string
}

// ToolCall reports a tool invocation about to execute.
// Name is the qualified "peer.tool" form.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ToolResult carries the payload a tool returned. Not forwarded to clients;
// consumed in-process (logging, tests).
type ToolResult struct {
	Name    string
	Payload string
	IsError bool
}

// Text is a chunk of assistant output. Chunks are accumulated by the bridge
// rather than forwarded individually.
type Text struct {
	Chunk string
}

// Error reports a failure during the turn.
type Error struct {
	Message string
}

// Final terminates the stream. Exactly one Final is emitted per turn.
type Final struct{}

func (Status) eventType() string     { return "status" }
func (ToolCall) eventType() string   { return "tool_call" }
func (ToolResult) eventType() string { return "tool_result" }
func (Text) eventType() string       { return "text" }
func (Error) eventType() string      { return "error" }
func (Final) eventType() string      { return "final" }

// Emitter receives events as a turn progresses. Must tolerate calls from
// multiple goroutines during a parallel RCA.
type Emitter func(Event)

// Discard is an Emitter that drops everything. Used by the synchronous chat
// path, which only needs the final text.
func Discard(Event) {}
