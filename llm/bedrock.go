package llm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/tfelder/agentware/agent"
)

// BedrockModel is an adapter for Amazon Bedrock foundation models using the
// Converse API.
//
// Supports the full AWS credential chain (explicit keys, profiles,
// environment variables, IAM roles), native tool use via toolConfig, and
// optional guardrail enforcement.
//
// Example:
//
//	model, err := NewBedrockModel(ctx, BedrockConfig{
//	    ModelID:     "us.amazon.nova-lite-v1:0",
//	    Region:      "us-west-2",
//	    Temperature: 0.1,
//	})
//
// Popular model IDs:
//   - us.amazon.nova-pro-v1:0 / nova-lite-v1:0 / nova-micro-v1:0
//   - anthropic.claude-3-5-sonnet-20241022-v2:0
//   - anthropic.claude-3-5-haiku-20241022-v1:0
type BedrockModel struct {
	client  *bedrockruntime.Client
	modelID string

	// Construction-time generation defaults, overridable per call.
	temperature *float64
	maxTokens   int

	guardrail *GuardrailConfig
}

// GuardrailConfig attaches a Bedrock guardrail to every model call.
type GuardrailConfig struct {
	// GuardrailID is the Bedrock guardrail identifier.
	GuardrailID string
	// Version is the guardrail version (e.g. "DRAFT", "1").
	Version string
	// Trace enables guardrail trace output for debugging.
	Trace bool
}

// BedrockConfig holds configuration for creating a Bedrock model adapter.
type BedrockConfig struct {
	// ModelID is the Bedrock model identifier.
	ModelID string

	// Region is the AWS region (default: us-east-1).
	Region string

	// Profile is the AWS profile name (optional).
	Profile string

	// AccessKeyID / SecretAccessKey / SessionToken are explicit
	// credentials (optional; the default chain is used otherwise).
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// EndpointURL is a custom endpoint URL for VPC endpoints (optional).
	EndpointURL string

	// Temperature is the default sampling temperature. Zero means
	// provider default.
	Temperature float64

	// MaxTokens is the default generation cap (default 4096).
	MaxTokens int

	// RetryMaxAttempts bounds SDK retries (default 3, adaptive mode).
	RetryMaxAttempts int

	// Guardrail optionally attaches a guardrail to every call.
	Guardrail *GuardrailConfig
}

// NewBedrockModel creates a new Bedrock model adapter.
func NewBedrockModel(ctx context.Context, cfg BedrockConfig) (*BedrockModel, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = "us.amazon.nova-lite-v1:0"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 3
	}

	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryMode(aws.RetryModeAdaptive),
		config.WithRetryMaxAttempts(cfg.RetryMaxAttempts),
	}
	if cfg.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	m := &BedrockModel{
		client:    bedrockruntime.NewFromConfig(awsConfig, clientOpts...),
		modelID:   cfg.ModelID,
		maxTokens: cfg.MaxTokens,
		guardrail: cfg.Guardrail,
	}
	if cfg.Temperature > 0 {
		m.temperature = &cfg.Temperature
	}
	return m, nil
}

// ModelID returns the model identifier.
func (b *BedrockModel) ModelID() string { return b.modelID }

// Unwrap returns the underlying Bedrock runtime client.
func (b *BedrockModel) Unwrap() interface{} { return b.client }

// Complete generates a plain completion from Bedrock.
func (b *BedrockModel) Complete(ctx context.Context, messages []*agent.Message, opts ...CallOption) (*agent.Message, error) {
	out, err := b.converse(ctx, messages, nil, BuildCallOptions(opts...))
	if err != nil {
		return nil, err
	}
	return out.Message, nil
}

// Converse sends the conversation and tool specs to Bedrock and returns
// the model's next turn, including any requested tool calls. This is the
// entry point used by the agent loop.
func (b *BedrockModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	return b.converse(ctx, messages, tools, BuildCallOptions())
}

func (b *BedrockModel) converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec, options *CallOptions) (*agent.ModelOutput, error) {
	bedrockMessages, systemPrompts := b.convertMessages(messages)

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(b.modelID),
		Messages:        bedrockMessages,
		InferenceConfig: b.inferenceConfig(options),
	}
	if len(systemPrompts) > 0 {
		input.System = systemPrompts
	}
	if len(tools) > 0 {
		input.ToolConfig = convertToolSpecs(tools)
	}
	if b.guardrail != nil {
		trace := types.GuardrailTraceDisabled
		if b.guardrail.Trace {
			trace = types.GuardrailTraceEnabled
		}
		input.GuardrailConfig = &types.GuardrailConfiguration{
			GuardrailIdentifier: aws.String(b.guardrail.GuardrailID),
			GuardrailVersion:    aws.String(b.guardrail.Version),
			Trace:               trace,
		}
	}

	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock api error: %w", err)
	}

	response := agent.NewMessage("assistant", "")
	response.Metadata["model"] = b.modelID

	if output.Output != nil {
		if msg, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
			for _, block := range msg.Value.Content {
				switch blk := block.(type) {
				case *types.ContentBlockMemberText:
					response.Content += blk.Value
				case *types.ContentBlockMemberToolUse:
					call := agent.ToolCall{
						ID:   aws.ToString(blk.Value.ToolUseId),
						Name: aws.ToString(blk.Value.Name),
					}
					if blk.Value.Input != nil {
						var params map[string]interface{}
						if err := blk.Value.Input.UnmarshalSmithyDocument(&params); err == nil {
							call.Parameters = params
						}
					}
					response.ToolCalls = append(response.ToolCalls, call)
				}
			}
		}
	}

	result := &agent.ModelOutput{
		Message:    response,
		StopReason: mapStopReason(output.StopReason),
	}
	if output.Usage != nil {
		result.Usage = map[string]interface{}{
			"prompt_tokens":     aws.ToInt32(output.Usage.InputTokens),
			"completion_tokens": aws.ToInt32(output.Usage.OutputTokens),
			"total_tokens":      aws.ToInt32(output.Usage.TotalTokens),
		}
		response.Metadata["usage"] = result.Usage
	}
	response.Metadata["stop_reason"] = result.StopReason
	return result, nil
}

// Stream generates completion chunks from Bedrock via ConverseStream.
//
// Each chunk has role "assistant" and metadata {"streaming": true}. A
// stream error is delivered as a final chunk with metadata key "error".
func (b *BedrockModel) Stream(ctx context.Context, messages []*agent.Message, opts ...CallOption) (<-chan *agent.Message, error) {
	options := BuildCallOptions(opts...)
	bedrockMessages, systemPrompts := b.convertMessages(messages)

	input := &bedrockruntime.ConverseStreamInput{
		ModelId:         aws.String(b.modelID),
		Messages:        bedrockMessages,
		InferenceConfig: b.inferenceConfig(options),
	}
	if len(systemPrompts) > 0 {
		input.System = systemPrompts
	}

	output, err := b.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock api error: %w", err)
	}

	messageChan := make(chan *agent.Message)
	go func() {
		defer close(messageChan)

		stream := output.GetStream()
		for event := range stream.Events() {
			if e, ok := event.(*types.ConverseStreamOutputMemberContentBlockDelta); ok {
				if e.Value.Delta != nil {
					if textDelta, ok := e.Value.Delta.(*types.ContentBlockDeltaMemberText); ok {
						chunk := agent.NewMessage("assistant", textDelta.Value)
						chunk.Metadata["streaming"] = true
						chunk.Metadata["model"] = b.modelID
						messageChan <- chunk
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errorMsg := agent.NewMessage("assistant", "")
			errorMsg.Metadata["error"] = err.Error()
			errorMsg.Metadata["streaming"] = true
			messageChan <- errorMsg
		}
	}()

	return messageChan, nil
}

func (b *BedrockModel) inferenceConfig(options *CallOptions) *types.InferenceConfiguration {
	cfg := &types.InferenceConfiguration{}

	temperature := b.temperature
	if options.Temperature != nil {
		temperature = options.Temperature
	}
	if temperature != nil {
		cfg.Temperature = aws.Float32(float32(*temperature))
	}

	maxTokens := b.maxTokens
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	cfg.MaxTokens = aws.Int32(int32(maxTokens))

	if options.TopP != nil {
		cfg.TopP = aws.Float32(float32(*options.TopP))
	}
	if len(options.StopSequences) > 0 {
		cfg.StopSequences = options.StopSequences
	}
	return cfg
}

// convertMessages converts agent messages to Bedrock Converse format.
//
// System messages go into the system parameter. Assistant messages carry
// their toolUse blocks; tool messages become user messages holding
// toolResult blocks, as the Converse API requires.
func (b *BedrockModel) convertMessages(messages []*agent.Message) ([]types.Message, []types.SystemContentBlock) {
	var bedrockMessages []types.Message
	var systemPrompts []types.SystemContentBlock

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemPrompts = append(systemPrompts, &types.SystemContentBlockMemberText{Value: msg.Content})

		case "tool":
			var blocks []types.ContentBlock
			for _, res := range msg.ToolResults {
				status := types.ToolResultStatusSuccess
				if res.IsError {
					status = types.ToolResultStatusError
				}
				blocks = append(blocks, &types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(res.CallID),
						Status:    status,
						Content: []types.ToolResultContentBlock{
							&types.ToolResultContentBlockMemberText{Value: res.Content},
						},
					},
				})
			}
			bedrockMessages = append(bedrockMessages, types.Message{
				Role:    types.ConversationRoleUser,
				Content: blocks,
			})

		case "assistant":
			var blocks []types.ContentBlock
			if msg.Content != "" {
				blocks = append(blocks, &types.ContentBlockMemberText{Value: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(call.ID),
						Name:      aws.String(call.Name),
						Input:     document.NewLazyDocument(call.Parameters),
					},
				})
			}
			bedrockMessages = append(bedrockMessages, types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: blocks,
			})

		default:
			bedrockMessages = append(bedrockMessages, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: msg.Content},
				},
			})
		}
	}

	return bedrockMessages, systemPrompts
}

func convertToolSpecs(tools []agent.ToolSpec) *types.ToolConfiguration {
	cfg := &types.ToolConfiguration{}
	for _, spec := range tools {
		cfg.Tools = append(cfg.Tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(spec.Name),
				Description: aws.String(spec.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(spec.InputSchema),
				},
			},
		})
	}
	return cfg
}

func mapStopReason(reason types.StopReason) string {
	switch reason {
	case types.StopReasonToolUse:
		return agent.StopToolUse
	case types.StopReasonMaxTokens:
		return agent.StopMaxTokens
	case types.StopReasonGuardrailIntervened:
		return agent.StopGuardrailIntervened
	case types.StopReasonEndTurn, types.StopReasonStopSequence:
		return agent.StopEndTurn
	default:
		return string(reason)
	}
}
