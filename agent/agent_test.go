package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockModel replays a scripted sequence of outputs.
type mockModel struct {
	outputs []*ModelOutput
	err     error
	calls   int
	// seen records the message list of every Converse call.
	seen [][]*Message
}

func (m *mockModel) ModelID() string { return "mock-model" }

func (m *mockModel) Converse(ctx context.Context, messages []*Message, tools []ToolSpec) (*ModelOutput, error) {
	m.seen = append(m.seen, messages)
	if m.err != nil {
		return nil, m.err
	}
	out := m.outputs[m.calls]
	m.calls++
	return out, nil
}

// echoTool returns its "text" parameter.
type echoTool struct {
	executed bool
	err      error
}

func (e *echoTool) Name() string                        { return "echo" }
func (e *echoTool) Description() string                 { return "Echo the input text" }
func (e *echoTool) InputSchema() map[string]interface{} { return nil }

func (e *echoTool) Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	e.executed = true
	if e.err != nil {
		return nil, e.err
	}
	text, _ := params["text"].(string)
	return NewToolResult(text), nil
}

func endTurn(content string) *ModelOutput {
	return &ModelOutput{
		Message:    NewMessage("assistant", content),
		StopReason: StopEndTurn,
	}
}

func toolUse(calls ...ToolCall) *ModelOutput {
	msg := NewMessage("assistant", "")
	msg.ToolCalls = calls
	return &ModelOutput{Message: msg, StopReason: StopToolUse}
}

func TestAgent_RunDirectAnswer(t *testing.T) {
	model := &mockModel{outputs: []*ModelOutput{endTurn("hello there")}}
	a := New(Config{Name: "test", Model: model, SystemPrompt: "be nice"})

	answer, err := a.Run(context.Background(), "hi")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer != "hello there" {
		t.Errorf("expected 'hello there', got %q", answer)
	}

	// System prompt should lead the conversation.
	first := model.seen[0]
	if first[0].Role != "system" || first[0].Content != "be nice" {
		t.Errorf("expected system prompt first, got %+v", first[0])
	}
	if first[len(first)-1].Content != "hi" {
		t.Errorf("expected user input last, got %+v", first[len(first)-1])
	}
}

func TestAgent_RunToolLoop(t *testing.T) {
	tool := &echoTool{}
	model := &mockModel{outputs: []*ModelOutput{
		toolUse(ToolCall{ID: "c1", Name: "echo", Parameters: map[string]interface{}{"text": "pong"}}),
		endTurn("the tool said pong"),
	}}
	a := New(Config{Name: "test", Model: model, Tools: []Tool{tool}})

	answer, err := a.Run(context.Background(), "ping")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer != "the tool said pong" {
		t.Errorf("unexpected answer %q", answer)
	}
	if !tool.executed {
		t.Error("expected tool to be executed")
	}

	// The second model call should carry the tool result.
	second := model.seen[1]
	last := second[len(second)-1]
	if last.Role != "tool" {
		t.Fatalf("expected tool message, got role %q", last.Role)
	}
	if len(last.ToolResults) != 1 || last.ToolResults[0].Content != "pong" {
		t.Errorf("unexpected tool results %+v", last.ToolResults)
	}
	if last.ToolResults[0].CallID != "c1" {
		t.Errorf("expected call ID c1, got %q", last.ToolResults[0].CallID)
	}
}

func TestAgent_RunUnknownTool(t *testing.T) {
	model := &mockModel{outputs: []*ModelOutput{
		toolUse(ToolCall{ID: "c1", Name: "missing"}),
		endTurn("recovered"),
	}}
	a := New(Config{Name: "test", Model: model})

	answer, err := a.Run(context.Background(), "go")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer != "recovered" {
		t.Errorf("unexpected answer %q", answer)
	}

	second := model.seen[1]
	result := second[len(second)-1].ToolResults[0]
	if !result.IsError {
		t.Error("expected error tool result for unknown tool")
	}
	if !strings.Contains(result.Content, "unknown tool") {
		t.Errorf("expected unknown tool message, got %q", result.Content)
	}
}

func TestAgent_RunToolError(t *testing.T) {
	tool := &echoTool{err: errors.New("boom")}
	model := &mockModel{outputs: []*ModelOutput{
		toolUse(ToolCall{ID: "c1", Name: "echo"}),
		endTurn("handled"),
	}}
	a := New(Config{Name: "test", Model: model, Tools: []Tool{tool}})

	if _, err := a.Run(context.Background(), "go"); err != nil {
		t.Fatalf("expected tool failures to be recoverable, got %v", err)
	}
	result := model.seen[1][len(model.seen[1])-1].ToolResults[0]
	if !result.IsError || result.Content != "boom" {
		t.Errorf("expected error result 'boom', got %+v", result)
	}
}

func TestAgent_RunModelError(t *testing.T) {
	model := &mockModel{err: errors.New("throttled")}
	a := New(Config{Name: "test", Model: model})

	if _, err := a.Run(context.Background(), "hi"); err == nil {
		t.Fatal("expected error from model failure")
	}
}

func TestAgent_RunMaxToolTurns(t *testing.T) {
	// A model that never stops asking for tools.
	loop := toolUse(ToolCall{ID: "c1", Name: "echo", Parameters: map[string]interface{}{"text": "x"}})
	model := &mockModel{outputs: []*ModelOutput{loop, loop, loop}}
	a := New(Config{Name: "test", Model: model, Tools: []Tool{&echoTool{}}, MaxToolTurns: 3})

	_, err := a.Run(context.Background(), "go")
	if err == nil {
		t.Fatal("expected error after exceeding tool turns")
	}
	if !strings.Contains(err.Error(), "tool turns") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAgent_HistoryAccumulates(t *testing.T) {
	model := &mockModel{outputs: []*ModelOutput{endTurn("first"), endTurn("second")}}
	a := New(Config{Name: "test", Model: model, SystemPrompt: "sp"})

	if _, err := a.Run(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Run(context.Background(), "two"); err != nil {
		t.Fatal(err)
	}

	history := a.Messages()
	// system, user, assistant, user, assistant
	if len(history) != 5 {
		t.Fatalf("expected 5 history messages, got %d", len(history))
	}
	if history[0].Role != "system" {
		t.Errorf("expected single leading system message, got %q", history[0].Role)
	}

	a.Reset()
	if len(a.Messages()) != 0 {
		t.Error("expected empty history after Reset")
	}
}

func TestSubAgentTool_Execute(t *testing.T) {
	model := &mockModel{outputs: []*ModelOutput{endTurn("42")}}
	sub := New(Config{Name: "math_assistant", Model: model})
	tool := NewSubAgentTool(sub, "solves math")

	if tool.Name() != "math_assistant" {
		t.Errorf("unexpected tool name %q", tool.Name())
	}

	result, err := tool.Execute(context.Background(), map[string]interface{}{"query": "6*7?"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success || result.Data != "42" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestRenderToolData(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "plain", "plain"},
		{"map", map[string]interface{}{"a": 1.0}, `{"a":1}`},
		{"number", 3.5, "3.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderToolData(tt.data); got != tt.want {
				t.Errorf("renderToolData(%v) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}
