package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// ChatService captures the subset of the openai-go client used by the
// adapter. Tests substitute a mock; production wires
// openai.Client.Chat.Completions.
type ChatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatCompletionService.New has a pointer receiver.
var _ ChatService = (*openai.ChatCompletionService)(nil)

// OpenAIOptions configures the OpenAI-compatible adapter.
type OpenAIOptions struct {
	Chat         ChatService
	DefaultModel string
}

// OpenAIClient implements Client via an OpenAI-compatible chat completions
// endpoint. Pointed at the Gemini OpenAI compatibility layer by default.
type OpenAIClient struct {
	chat  ChatService
	model string
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAI builds an adapter from the provided options.
func NewOpenAI(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model is required")
	}
	return &OpenAIClient{chat: opts.Chat, model: opts.DefaultModel}, nil
}

// NewOpenAIFromAPIKey constructs an adapter with the default HTTP client.
// baseURL selects the provider endpoint (e.g., the Gemini compatibility
// layer); empty means the OpenAI platform default.
func NewOpenAIFromAPIKey(apiKey, baseURL, defaultModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return NewOpenAI(OpenAIOptions{Chat: &client.Chat.Completions, DefaultModel: defaultModel})
}

// Complete renders one chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Completion, error) {
	if req == nil || (len(req.Messages) == 0 && req.Instruction == "") {
		return nil, errors.New("messages are required")
	}

	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.Instruction != "" {
		messages = append(messages, openai.SystemMessage(req.Instruction))
	}
	for _, m := range req.Messages {
		union, err := encodeMessage(m)
		if err != nil {
			return nil, err
		}
		messages = append(messages, union)
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelID),
		Messages: messages,
		Tools:    tools,
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	msg := resp.Choices[0].Message
	completion := &Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return completion, nil
}

func encodeMessage(m Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case RoleSystem:
		return openai.SystemMessage(m.Content), nil
	case RoleUser:
		return openai.UserMessage(m.Content), nil
	case RoleAssistant:
		if len(m.ToolCalls) == 0 {
			return openai.AssistantMessage(m.Content), nil
		}
		assistant := openai.ChatCompletionAssistantMessageParam{}
		if m.Content != "" {
			assistant.Content.OfString = openai.String(m.Content)
		}
		for _, tc := range m.ToolCalls {
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil
	case RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported message role %q", m.Role)
	}
}

func encodeTools(defs []ToolDefinition) ([]openai.ChatCompletionToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		fn := openai.FunctionDefinitionParam{Name: def.Name}
		if def.Description != "" {
			fn.Description = openai.String(def.Description)
		}
		if def.ParametersSchema != "" {
			var params openai.FunctionParameters
			if err := json.Unmarshal([]byte(def.ParametersSchema), &params); err != nil {
				return nil, fmt.Errorf("parse schema for tool %s: %w", def.Name, err)
			}
			fn.Parameters = params
		}
		tools = append(tools, openai.ChatCompletionFunctionTool(fn))
	}
	return tools, nil
}
