package events

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_StatusAndErrorPassThrough(t *testing.T) {
	b := NewBridge("user_1", "session_1")

	frame := b.Translate(Status{Text: "🔄 Processing your request..."})
	require.IsType(t, StatusFrame{}, frame)
	assert.Equal(t, "status", frame.(StatusFrame).Type)
	assert.Equal(t, "🔄 Processing your request...", frame.(StatusFrame).Message)

	frame = b.Translate(Error{Message: "boom"})
	require.IsType(t, ErrorFrame{}, frame)
	assert.Equal(t, "error", frame.(ErrorFrame).Type)
	assert.Equal(t, "boom", frame.(ErrorFrame).Message)
}

func TestBridge_TextAccumulation(t *testing.T) {
	b := NewBridge("user_1", "session_1")

	assert.Nil(t, b.Translate(Text{Chunk: "part one "}))
	assert.Nil(t, b.Translate(Text{Chunk: "part two"}))

	frame := b.Translate(Final{})
	require.IsType(t, CompleteFrame{}, frame)
	complete := frame.(CompleteFrame)
	assert.Equal(t, "complete", complete.Type)
	assert.Equal(t, "part one part two", complete.Response)
	assert.Equal(t, "user_1", complete.UserID)
	assert.Equal(t, "session_1", complete.SessionID)
}

func TestBridge_EmptyResponsePlaceholder(t *testing.T) {
	b := NewBridge("u", "s")
	frame := b.Translate(Final{})
	assert.Equal(t, "No response from agent.", frame.(CompleteFrame).Response)
}

func TestBridge_ToolResultProducesNoFrame(t *testing.T) {
	b := NewBridge("u", "s")
	assert.Nil(t, b.Translate(ToolResult{Name: "jenkins.list_jobs", Payload: "ok"}))
}

func TestBridge_ToolCallFrame(t *testing.T) {
	b := NewBridge("u", "s")
	frame := b.Translate(ToolCall{
		Name: "jenkins.get_build_log",
		Args: map[string]any{"job": "deploy", "number": 42},
	})
	require.IsType(t, ToolCallFrame{}, frame)
	tc := frame.(ToolCallFrame)
	assert.Equal(t, "tool_call", tc.Type)
	assert.Equal(t, "jenkins.get_build_log", tc.ToolName)
	assert.Equal(t, `🔧 Calling: jenkins.get_build_log(job="deploy", number=42)`, tc.Message)
	assert.Equal(t, 42, tc.Args["number"])
}

func TestFormatToolCall_CapsPairsAndReprLength(t *testing.T) {
	msg := FormatToolCall("k8s.get_pods", map[string]any{
		"a": "1", "b": "2", "c": "3", "d": "4",
	})
	// Keys sorted, at most three pairs.
	assert.Equal(t, `🔧 Calling: k8s.get_pods(a="1", b="2", c="3")`, msg)

	long := strings.Repeat("x", 100)
	msg = FormatToolCall("k8s.get_logs", map[string]any{"pod": long})
	inner := strings.TrimSuffix(strings.TrimPrefix(msg, "🔧 Calling: k8s.get_logs(pod="), ")")
	assert.Len(t, inner, 30)
}

func TestFormatToolCall_MultiByteReprTruncation(t *testing.T) {
	long := strings.Repeat("ログ", 30)
	msg := FormatToolCall("k8s.get_logs", map[string]any{"pod": long})
	inner := strings.TrimSuffix(strings.TrimPrefix(msg, "🔧 Calling: k8s.get_logs(pod="), ")")

	// Truncated on a rune boundary, never mid-character.
	assert.Equal(t, 30, utf8.RuneCountInString(inner))
	assert.True(t, utf8.ValidString(inner))
	assert.NotContains(t, inner, "�")
}

func TestFormatToolCall_NoArgs(t *testing.T) {
	assert.Equal(t, "🔧 Calling: jenkins.list_jobs()", FormatToolCall("jenkins.list_jobs", nil))
}
