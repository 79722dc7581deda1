package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
)

// flakyModel fails a fixed number of times before succeeding.
type flakyModel struct {
	failures int
	calls    int
	delay    time.Duration
}

func (f *flakyModel) ModelID() string     { return "flaky" }
func (f *flakyModel) Unwrap() interface{} { return nil }

func (f *flakyModel) Complete(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (*agent.Message, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.calls <= f.failures {
		return nil, errors.New("throttled")
	}
	return agent.NewMessage("assistant", "ok"), nil
}

func (f *flakyModel) Converse(ctx context.Context, messages []*agent.Message, tools []agent.ToolSpec) (*agent.ModelOutput, error) {
	msg, err := f.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return &agent.ModelOutput{Message: msg, StopReason: agent.StopEndTurn}, nil
}

func (f *flakyModel) Stream(ctx context.Context, messages []*agent.Message, opts ...llm.CallOption) (<-chan *agent.Message, error) {
	return nil, errors.New("not implemented")
}

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestRetryModel_EventualSuccess(t *testing.T) {
	model := &flakyModel{failures: 2}
	r := NewRetryModel(model, fastRetryConfig(3))

	response, err := r.Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("unexpected response %q", response.Content)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
}

func TestRetryModel_AllAttemptsFail(t *testing.T) {
	model := &flakyModel{failures: 10}
	r := NewRetryModel(model, fastRetryConfig(3))

	_, err := r.Complete(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Errorf("unexpected error %v", err)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
}

func TestRetryModel_NonRetryable(t *testing.T) {
	model := &flakyModel{failures: 10}
	cfg := fastRetryConfig(3)
	cfg.ShouldRetry = func(error) bool { return false }
	r := NewRetryModel(model, cfg)

	_, err := r.Complete(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if model.calls != 1 {
		t.Errorf("expected a single call for non-retryable error, got %d", model.calls)
	}
}

func TestRetryModel_ContextCancelled(t *testing.T) {
	model := &flakyModel{failures: 10}
	cfg := fastRetryConfig(5)
	cfg.InitialBackoff = time.Second
	r := NewRetryModel(model, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Complete(ctx, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRetryModel_Converse(t *testing.T) {
	model := &flakyModel{failures: 1}
	r := NewRetryModel(model, fastRetryConfig(3))

	out, err := r.Converse(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if out.StopReason != agent.StopEndTurn {
		t.Errorf("unexpected stop reason %q", out.StopReason)
	}
}

func TestTimeoutModel_DeadlineExceeded(t *testing.T) {
	model := &flakyModel{delay: 100 * time.Millisecond}
	tm := NewTimeoutModel(model, 10*time.Millisecond)

	_, err := tm.Complete(context.Background(), nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTimeoutModel_Success(t *testing.T) {
	model := &flakyModel{}
	tm := NewTimeoutModel(model, time.Second)

	response, err := tm.Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if response.Content != "ok" {
		t.Errorf("unexpected response %q", response.Content)
	}
}

func TestTimeoutModel_DefaultTimeout(t *testing.T) {
	tm := NewTimeoutModel(&flakyModel{}, 0)
	if tm.timeout != DefaultCallTimeout {
		t.Errorf("expected default timeout, got %v", tm.timeout)
	}
}
