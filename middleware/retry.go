// Package middleware provides resilience decorators around model adapters.
package middleware

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the
	// initial attempt). Default: 3
	MaxAttempts int

	// InitialBackoff is the initial backoff duration. Default: 500ms
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration. Default: 10s
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2.0
	BackoffMultiplier float64

	// Jitter adds up to this fraction of random jitter to each backoff.
	// Default: 0.2
	Jitter float64

	// ShouldRetry determines if an error should trigger a retry.
	// If nil, all errors trigger retries.
	ShouldRetry func(error) bool
}

// DefaultRetryConfig returns a retry config with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// RetryModel wraps a model adapter with retry logic. It implements both
// llm.LLM and agent.Model, so it can sit in front of any adapter.
type RetryModel struct {
	model  llm.LLM
	config RetryConfig
}

var _ llm.LLM = (*RetryModel)(nil)

// NewRetryModel creates a new retry decorator around a model.
func NewRetryModel(model llm.LLM, config RetryConfig) *RetryModel {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &RetryModel{model: model, config: config}
}

// ModelID returns the underlying model identifier.
func (r *RetryModel) ModelID() string { return r.model.ModelID() }

// Unwrap returns the underlying model adapter.
func (r *RetryModel) Unwrap() interface{} { return r.model }

// Complete calls the underlying model with retries.
func (r *RetryModel) Complete(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (*agent.Message, error) {
	var response *agent.Message
	err := r.retry(ctx, func() error {
		var err error
		response, err = r.model.Complete(ctx, messages, opts...)
		return err
	})
	return response, err
}

// Converse calls the underlying model's tool-use entry point with retries.
// The underlying adapter must implement agent.Model.
func (r *RetryModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	m, ok := r.model.(agent.Model)
	if !ok {
		return nil, fmt.Errorf("model %s does not support tool use", r.model.ModelID())
	}
	var out *agent.ModelOutput
	err := r.retry(ctx, func() error {
		var err error
		out, err = m.Converse(ctx, messages, tools)
		return err
	})
	return out, err
}

// Stream is not retried: a failed stream is surfaced to the caller, which
// can re-invoke it.
func (r *RetryModel) Stream(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (<-chan *agent.Message, error) {
	return r.model.Stream(ctx, messages, opts...)
}

func (r *RetryModel) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := r.config.InitialBackoff

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if r.config.ShouldRetry != nil && !r.config.ShouldRetry(err) {
			return fmt.Errorf("non-retryable error on attempt %d/%d: %w", attempt, r.config.MaxAttempts, err)
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after attempt %d/%d: %w", attempt, r.config.MaxAttempts, ctx.Err())
		case <-time.After(r.jittered(backoff)):
		}

		backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
		if backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", r.config.MaxAttempts, lastErr)
}

func (r *RetryModel) jittered(backoff time.Duration) time.Duration {
	if r.config.Jitter <= 0 {
		return backoff
	}
	jitter := time.Duration(rand.Float64() * r.config.Jitter * float64(backoff))
	return backoff + jitter
}
