package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
)

// DefaultCallTimeout mirrors the 120s read timeout the hosted-model demos
// configure on their SDK clients.
const DefaultCallTimeout = 120 * time.Second

// TimeoutModel wraps a model adapter with a per-call deadline.
type TimeoutModel struct {
	model   llm.LLM
	timeout time.Duration
}

var _ llm.LLM = (*TimeoutModel)(nil)

// NewTimeoutModel creates a timeout decorator. A non-positive timeout
// falls back to DefaultCallTimeout.
func NewTimeoutModel(model llm.LLM, timeout time.Duration) *TimeoutModel {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &TimeoutModel{model: model, timeout: timeout}
}

// ModelID returns the underlying model identifier.
func (t *TimeoutModel) ModelID() string { return t.model.ModelID() }

// Unwrap returns the underlying model adapter.
func (t *TimeoutModel) Unwrap() interface{} { return t.model }

// Complete calls the underlying model under a deadline.
func (t *TimeoutModel) Complete(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (*agent.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	response, err := t.model.Complete(ctx, messages, opts...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("model call timed out after %s: %w", t.timeout, err)
	}
	return response, err
}

// Converse calls the underlying model's tool-use entry point under a
// deadline. The underlying adapter must implement agent.Model.
func (t *TimeoutModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	m, ok := t.model.(agent.Model)
	if !ok {
		return nil, fmt.Errorf("model %s does not support tool use", t.model.ModelID())
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	out, err := m.Converse(ctx, messages, tools)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("model call timed out after %s: %w", t.timeout, err)
	}
	return out, err
}

// Stream starts the stream under the caller's context; chunk delivery is
// not individually bounded.
func (t *TimeoutModel) Stream(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (<-chan *agent.Message, error) {
	return t.model.Stream(ctx, messages, opts...)
}
