package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/tfelder/agentware/agent"
)

// OpenAIModel is an adapter for OpenAI's GPT models.
//
// Wraps the go-openai SDK behind the same interface as the Bedrock
// adapter, including native tool use via function calling, so agents can
// swap providers without code changes.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature *float64
	maxTokens   int
}

// OpenAIConfig holds configuration for creating an OpenAI model adapter.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model identifier (default "gpt-4o").
	Model string
	// Temperature is the default sampling temperature.
	Temperature float64
	// MaxTokens is the default generation cap (0 = provider default).
	MaxTokens int
}

// NewOpenAIModel creates a new OpenAI model adapter.
func NewOpenAIModel(cfg OpenAIConfig) *OpenAIModel {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	m := &OpenAIModel{
		client:    openai.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
	if cfg.Temperature > 0 {
		m.temperature = &cfg.Temperature
	}
	return m
}

// ModelID returns the model identifier.
func (o *OpenAIModel) ModelID() string { return o.model }

// Unwrap returns the underlying go-openai client.
func (o *OpenAIModel) Unwrap() interface{} { return o.client }

// Complete generates a plain completion from GPT.
func (o *OpenAIModel) Complete(ctx context.Context, messages []*agent.Message, opts ...CallOption) (*agent.Message, error) {
	out, err := o.converse(ctx, messages, nil, BuildCallOptions(opts...))
	if err != nil {
		return nil, err
	}
	return out.Message, nil
}

// Converse sends the conversation and tool specs to GPT, mapping tool
// specs onto OpenAI function definitions.
func (o *OpenAIModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	return o.converse(ctx, messages, tools, BuildCallOptions())
}

func (o *OpenAIModel) converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec, options *CallOptions) (*agent.ModelOutput, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.convertMessages(messages),
	}
	o.applyOptions(&req, options)

	for _, spec := range tools {
		params, err := json.Marshal(spec.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("marshal tool schema for %s: %w", spec.Name, err)
		}
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai api returned no choices")
	}

	choice := resp.Choices[0]
	response := agent.NewMessage("assistant", choice.Message.Content)
	response.Metadata["model"] = resp.Model
	response.Metadata["finish_reason"] = string(choice.FinishReason)

	for _, tc := range choice.Message.ToolCalls {
		call := agent.ToolCall{ID: tc.ID, Name: tc.Function.Name}
		if tc.Function.Arguments != "" {
			var params map[string]interface{}
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &params); err == nil {
				call.Parameters = params
			}
		}
		response.ToolCalls = append(response.ToolCalls, call)
	}

	out := &agent.ModelOutput{
		Message:    response,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
		Usage: map[string]interface{}{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}
	response.Metadata["usage"] = out.Usage
	return out, nil
}

// Stream generates completion chunks from GPT.
func (o *OpenAIModel) Stream(ctx context.Context, messages []*agent.Message, opts ...CallOption) (<-chan *agent.Message, error) {
	options := BuildCallOptions(opts...)
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: o.convertMessages(messages),
		Stream:   true,
	}
	o.applyOptions(&req, options)

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	messageChan := make(chan *agent.Message)
	go func() {
		defer close(messageChan)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errorMsg := agent.NewMessage("assistant", "")
				errorMsg.Metadata["error"] = err.Error()
				errorMsg.Metadata["streaming"] = true
				messageChan <- errorMsg
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			chunk := agent.NewMessage("assistant", resp.Choices[0].Delta.Content)
			chunk.Metadata["streaming"] = true
			chunk.Metadata["model"] = o.model
			messageChan <- chunk
		}
	}()

	return messageChan, nil
}

func (o *OpenAIModel) applyOptions(req *openai.ChatCompletionRequest, options *CallOptions) {
	temperature := o.temperature
	if options.Temperature != nil {
		temperature = options.Temperature
	}
	if temperature != nil {
		req.Temperature = float32(*temperature)
	}
	maxTokens := o.maxTokens
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if len(options.StopSequences) > 0 {
		req.Stop = options.StopSequences
	}
}

// convertMessages converts agent messages to OpenAI chat format. Tool
// messages expand into one tool-role message per result block.
func (o *OpenAIModel) convertMessages(messages []*agent.Message) []openai.ChatCompletionMessage {
	var converted []openai.ChatCompletionMessage
	for _, msg := range messages {
		switch msg.Role {
		case "tool":
			for _, res := range msg.ToolResults {
				converted = append(converted, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    res.Content,
					ToolCallID: res.CallID,
				})
			}
		case "assistant":
			m := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				args, _ := json.Marshal(call.Parameters)
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			converted = append(converted, m)
		default:
			converted = append(converted, openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}
	return converted
}

func mapOpenAIFinishReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return agent.StopToolUse
	case openai.FinishReasonLength:
		return agent.StopMaxTokens
	default:
		return agent.StopEndTurn
	}
}
