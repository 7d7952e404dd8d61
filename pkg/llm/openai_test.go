package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChat records the last request and plays back a scripted response.
type mockChat struct {
	lastParams openai.ChatCompletionNewParams
	response   *openai.ChatCompletion
	err        error
}

func (m *mockChat) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = body
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func textResponse(text string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func TestNewOpenAI_Validation(t *testing.T) {
	_, err := NewOpenAI(OpenAIOptions{DefaultModel: "gemini-2.5-flash"})
	assert.Error(t, err)

	_, err = NewOpenAI(OpenAIOptions{Chat: &mockChat{}})
	assert.Error(t, err)

	_, err = NewOpenAIFromAPIKey("", "", "gemini-2.5-flash")
	assert.Error(t, err)
}

func TestComplete_TextOnly(t *testing.T) {
	chat := &mockChat{response: textResponse("hello there")}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), &Request{
		Instruction: "You are helpful.",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", completion.Text)
	assert.Empty(t, completion.ToolCalls)

	// System instruction plus the user message.
	assert.Len(t, chat.lastParams.Messages, 2)
	assert.Equal(t, "gemini-2.5-flash", string(chat.lastParams.Model))
	assert.Empty(t, chat.lastParams.Tools)
}

func TestComplete_ModelOverride(t *testing.T) {
	chat := &mockChat{response: textResponse("ok")}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &Request{
		Model:    "gemini-2.5-pro",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", string(chat.lastParams.Model))
}

func TestComplete_ToolCallsReturned(t *testing.T) {
	chat := &mockChat{response: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ChatCompletionMessageToolCallUnion{
					{
						ID: "call_1",
						Function: openai.ChatCompletionMessageFunctionToolCallFunction{
							Name:      "jenkins__list_jobs",
							Arguments: `{"folder":"ci"}`,
						},
					},
				},
			}},
		},
	}}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "list jobs"}},
		Tools: []ToolDefinition{
			{
				Name:             "jenkins__list_jobs",
				Description:      "List Jenkins jobs",
				ParametersSchema: `{"type":"object","properties":{"folder":{"type":"string"}}}`,
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, "call_1", completion.ToolCalls[0].ID)
	assert.Equal(t, "jenkins__list_jobs", completion.ToolCalls[0].Name)
	assert.JSONEq(t, `{"folder":"ci"}`, completion.ToolCalls[0].Arguments)
	assert.Len(t, chat.lastParams.Tools, 1)
}

func TestComplete_ThreadsToolResults(t *testing.T) {
	chat := &mockChat{response: textResponse("done")}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &Request{
		Messages: []Message{
			{Role: RoleUser, Content: "list jobs"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{
				{ID: "call_1", Name: "jenkins__list_jobs", Arguments: "{}"},
			}},
			{Role: RoleTool, Content: "job-a, job-b", ToolCallID: "call_1"},
		},
	})
	require.NoError(t, err)

	require.Len(t, chat.lastParams.Messages, 3)
	assistant := chat.lastParams.Messages[1].OfAssistant
	require.NotNil(t, assistant)
	require.Len(t, assistant.ToolCalls, 1)
	require.NotNil(t, assistant.ToolCalls[0].OfFunction)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].OfFunction.ID)
	require.NotNil(t, chat.lastParams.Messages[2].OfTool)
}

func TestComplete_InvalidSchema(t *testing.T) {
	client, err := NewOpenAI(OpenAIOptions{Chat: &mockChat{}, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tools:    []ToolDefinition{{Name: "broken", ParametersSchema: "{not json"}},
	})
	assert.Error(t, err)
}

func TestComplete_ProviderError(t *testing.T) {
	chat := &mockChat{err: errors.New("rate limited")}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_NoChoices(t *testing.T) {
	chat := &mockChat{response: &openai.ChatCompletion{}}
	client, err := NewOpenAI(OpenAIOptions{Chat: chat, DefaultModel: "gemini-2.5-flash"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}
