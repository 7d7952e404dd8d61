package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/opsmaestro/maestro/pkg/events"
	"github.com/opsmaestro/maestro/pkg/llm"
)

// DefaultMaxTurns bounds the tool loop of a single agent run.
const DefaultMaxTurns = 10

// Runner drives one agent through a turn: model call, tool execution,
// follow-up, until the model produces final text. Stateless across runs;
// safe to share between goroutines.
type Runner struct {
	llm      llm.Client
	executor ToolExecutor
	memory   *Memory
	maxTurns int
	logger   *slog.Logger
}

// NewRunner creates a runner over the given model client and tool executor.
func NewRunner(client llm.Client, executor ToolExecutor, memory *Memory) *Runner {
	return &Runner{
		llm:      client,
		executor: executor,
		memory:   memory,
		maxTurns: DefaultMaxTurns,
		logger:   slog.Default(),
	}
}

// Run executes one user turn against the agent definition.
//
// The session's prior history is read from runtime memory; on success the
// user turn and the final assistant text are appended back. Tool calls and
// text are surfaced through emit as they happen. Returns the final text.
func (r *Runner) Run(ctx context.Context, def *Definition, sessionID, userText string, emit events.Emitter) (string, error) {
	if emit == nil {
		emit = events.Discard
	}

	messages := append(r.memory.History(sessionID), llm.Message{Role: llm.RoleUser, Content: userText})

	toolDefs := make([]llm.ToolDefinition, 0, len(def.Tools))
	for _, t := range def.Tools {
		toolDefs = append(toolDefs, llm.ToolDefinition{
			Name:             llmToolName(t.Name),
			Description:      t.Description,
			ParametersSchema: t.ParametersSchema,
		})
	}

	for turn := 0; turn < r.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		completion, err := r.llm.Complete(ctx, &llm.Request{
			Model:       def.Model,
			Instruction: def.Instruction,
			Messages:    messages,
			Tools:       toolDefs,
		})
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", def.Name, err)
		}

		if len(completion.ToolCalls) == 0 {
			final := completion.Text
			emit(events.Text{Chunk: final})
			r.memory.Append(sessionID, llm.RoleUser, userText)
			r.memory.Append(sessionID, llm.RoleAssistant, final)
			return final, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		for _, tc := range completion.ToolCalls {
			name := canonicalToolName(tc.Name)
			emit(events.ToolCall{Name: name, Args: parseArgs(tc.Arguments)})

			result, err := r.executor.Execute(ctx, ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
			if err != nil {
				// Infrastructure failure (cancellation etc.) — tool-level
				// errors come back inside the result instead.
				return "", fmt.Errorf("execute %s: %w", name, err)
			}
			if result.IsError {
				r.logger.Warn("Tool call failed",
					"agent", def.Name, "tool", name, "error", result.Content)
			}
			emit(events.ToolResult{Name: name, Payload: result.Content, IsError: result.IsError})

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.Content,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", fmt.Errorf("agent %s: tool loop exceeded %d turns", def.Name, r.maxTurns)
}

// parseArgs decodes the model's JSON argument string for event reporting.
// Undecodable input is preserved under a "raw" key rather than dropped.
func parseArgs(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"raw": raw}
	}
	return args
}
