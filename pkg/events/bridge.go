package events

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// Outbound frame shapes. Serialized as the JSON payload of one SSE frame.

// StatusFrame carries a progress line.
type StatusFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ToolCallFrame announces a tool invocation.
type ToolCallFrame struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
}

// ErrorFrame reports a failure.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CompleteFrame terminates the stream with the accumulated response.
type CompleteFrame struct {
	Type      string `json:"type"`
	Response  string `json:"response"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

const (
	frameStatus   = "status"
	frameToolCall = "tool_call"
	frameError    = "error"
	frameComplete = "complete"
)

// maxArgPairs and maxArgRepr bound the tool-call preview line.
const (
	maxArgPairs = 3
	maxArgRepr  = 30
)

// Bridge converts the internal event stream into outbound frames.
// Text chunks are buffered; Final produces a single complete frame carrying
// the accumulated response. Safe for concurrent emitters.
type Bridge struct {
	userID    string
	sessionID string

	mu  sync.Mutex
	buf strings.Builder
}

// NewBridge creates a bridge scoped to one chat turn.
func NewBridge(userID, sessionID string) *Bridge {
	return &Bridge{userID: userID, sessionID: sessionID}
}

// Translate maps one event to its outbound frame.
// Returns nil for events that produce no frame (text chunks, tool results).
func (b *Bridge) Translate(ev Event) any {
	switch e := ev.(type) {
	case Status:
		return StatusFrame{Type: frameStatus, Message: e.Text}
	case ToolCall:
		return ToolCallFrame{
			Type:     frameToolCall,
			Message:  FormatToolCall(e.Name, e.Args),
			ToolName: e.Name,
			Args:     e.Args,
		}
	case Text:
		b.mu.Lock()
		b.buf.WriteString(e.Chunk)
		b.mu.Unlock()
		return nil
	case Error:
		return ErrorFrame{Type: frameError, Message: e.Message}
	case Final:
		return CompleteFrame{
			Type:      frameComplete,
			Response:  b.Response(),
			UserID:    b.userID,
			SessionID: b.sessionID,
		}
	default:
		return nil
	}
}

// Response returns the accumulated assistant text, or a placeholder when the
// agent produced nothing.
func (b *Bridge) Response() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return "No response from agent."
	}
	return b.buf.String()
}

// FormatToolCall renders the preview line for a tool invocation:
// at most three argument pairs, each value repr truncated to 30 characters.
// Keys are sorted for deterministic output.
func FormatToolCall(name string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxArgPairs {
		keys = keys[:maxArgPairs]
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+argRepr(args[k]))
	}
	return fmt.Sprintf("🔧 Calling: %s(%s)", name, strings.Join(pairs, ", "))
}

// argRepr renders one argument value, quoting strings, capped at
// maxArgRepr characters. Truncation counts runes so a multi-byte value
// is never cut mid-character.
func argRepr(v any) string {
	var repr string
	switch t := v.(type) {
	case string:
		repr = strconv.Quote(t)
	default:
		repr = fmt.Sprintf("%v", t)
	}
	if utf8.RuneCountInString(repr) > maxArgRepr {
		repr = string([]rune(repr)[:maxArgRepr])
	}
	return repr
}
