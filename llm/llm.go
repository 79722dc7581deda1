// Package llm provides model adapters for the agent loop.
//
// The LLM interface is the minimal contract for plain completions; adapters
// that support native tool use additionally implement agent.Model. Providers
// are swappable: the same agent code runs against Bedrock, OpenAI, or
// Gemini.
package llm

import (
	"context"

	"github.com/tfelder/agentware/agent"
)

// LLM is the minimal interface for plain (tool-free) model interaction.
//
// Example:
//
//	model, _ := NewBedrockModel(ctx, BedrockConfig{ModelID: "us.amazon.nova-lite-v1:0"})
//	messages := []*agent.Message{
//	    agent.NewMessage("system", "You are helpful."),
//	    agent.NewMessage("user", "Hello!"),
//	}
//	response, err := model.Complete(ctx, messages, WithTemperature(0.7))
type LLM interface {
	// Complete generates a single completion from the model.
	//
	// The response message has role "assistant"; metadata carries the
	// model ID, token usage, and stop reason when the provider reports
	// them.
	Complete(ctx context.Context, messages []*agent.Message, opts ...CallOption) (*agent.Message, error)

	// Stream generates completion chunks. The channel is closed when
	// streaming completes; a chunk with metadata key "error" signals a
	// mid-stream failure.
	Stream(ctx context.Context, messages []*agent.Message, opts ...CallOption) (<-chan *agent.Message, error)

	// ModelID returns the model identifier.
	ModelID() string

	// Unwrap returns the underlying provider client for advanced
	// features. Using it breaks provider portability.
	Unwrap() interface{}
}

// CallOptions holds per-call options for model invocations. Adapters apply
// construction-time defaults first, then per-call options.
type CallOptions struct {
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	StopSequences []string

	// Extra carries provider-specific options.
	Extra map[string]interface{}
}

// CallOption is a functional option for configuring model calls.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature (typically 0.0-1.0).
func WithTemperature(temperature float64) CallOption {
	return func(opts *CallOptions) { opts.Temperature = &temperature }
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) CallOption {
	return func(opts *CallOptions) { opts.MaxTokens = &maxTokens }
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(topP float64) CallOption {
	return func(opts *CallOptions) { opts.TopP = &topP }
}

// WithStopSequences sets sequences that halt generation.
func WithStopSequences(sequences ...string) CallOption {
	return func(opts *CallOptions) { opts.StopSequences = sequences }
}

// WithExtra adds a provider-specific option.
func WithExtra(key string, value interface{}) CallOption {
	return func(opts *CallOptions) {
		if opts.Extra == nil {
			opts.Extra = make(map[string]interface{})
		}
		opts.Extra[key] = value
	}
}

// BuildCallOptions creates CallOptions from functional options.
func BuildCallOptions(opts ...CallOption) *CallOptions {
	options := &CallOptions{Extra: make(map[string]interface{})}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
