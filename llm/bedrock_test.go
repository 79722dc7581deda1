package llm

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/tfelder/agentware/agent"
)

func TestBedrockModel_ConvertMessages(t *testing.T) {
	b := &BedrockModel{modelID: "test-model"}

	assistant := agent.NewMessage("assistant", "let me check")
	assistant.ToolCalls = []agent.ToolCall{
		{ID: "c1", Name: "lookup", Parameters: map[string]interface{}{"q": "x"}},
	}
	toolMsg := &agent.Message{
		Role: "tool",
		ToolResults: []agent.ToolResultBlock{
			{CallID: "c1", Content: "found it"},
			{CallID: "c2", Content: "bad input", IsError: true},
		},
	}

	messages := []*agent.Message{
		agent.NewMessage("system", "be brief"),
		agent.NewMessage("user", "question"),
		assistant,
		toolMsg,
	}

	converted, system := b.convertMessages(messages)

	if len(system) != 1 {
		t.Fatalf("expected 1 system block, got %d", len(system))
	}
	if len(converted) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(converted))
	}

	if converted[0].Role != types.ConversationRoleUser {
		t.Errorf("expected user role, got %v", converted[0].Role)
	}

	// Assistant message carries text plus toolUse blocks.
	if converted[1].Role != types.ConversationRoleAssistant {
		t.Errorf("expected assistant role, got %v", converted[1].Role)
	}
	if len(converted[1].Content) != 2 {
		t.Fatalf("expected 2 assistant content blocks, got %d", len(converted[1].Content))
	}
	if _, ok := converted[1].Content[1].(*types.ContentBlockMemberToolUse); !ok {
		t.Errorf("expected toolUse block, got %T", converted[1].Content[1])
	}

	// Tool results become a user message of toolResult blocks.
	if converted[2].Role != types.ConversationRoleUser {
		t.Errorf("expected tool results as user message, got %v", converted[2].Role)
	}
	blocks := converted[2].Content
	if len(blocks) != 2 {
		t.Fatalf("expected 2 toolResult blocks, got %d", len(blocks))
	}
	second, ok := blocks[1].(*types.ContentBlockMemberToolResult)
	if !ok {
		t.Fatalf("expected toolResult block, got %T", blocks[1])
	}
	if second.Value.Status != types.ToolResultStatusError {
		t.Errorf("expected error status, got %v", second.Value.Status)
	}
}

func TestConvertToolSpecs(t *testing.T) {
	specs := []agent.ToolSpec{
		{Name: "echo", Description: "Echo text", InputSchema: map[string]interface{}{"type": "object"}},
	}
	cfg := convertToolSpecs(specs)
	if len(cfg.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(cfg.Tools))
	}
	spec, ok := cfg.Tools[0].(*types.ToolMemberToolSpec)
	if !ok {
		t.Fatalf("expected ToolMemberToolSpec, got %T", cfg.Tools[0])
	}
	if *spec.Value.Name != "echo" {
		t.Errorf("expected name echo, got %q", *spec.Value.Name)
	}

	schema, ok := spec.Value.InputSchema.(*types.ToolInputSchemaMemberJson)
	if !ok {
		t.Fatalf("expected JSON input schema, got %T", spec.Value.InputSchema)
	}
	var decoded map[string]interface{}
	if err := schema.Value.UnmarshalSmithyDocument(&decoded); err != nil {
		t.Fatalf("decode schema document: %v", err)
	}
	if decoded["type"] != "object" {
		t.Errorf("schema lost through document encoding: %v", decoded)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := []struct {
		reason types.StopReason
		want   string
	}{
		{types.StopReasonEndTurn, agent.StopEndTurn},
		{types.StopReasonStopSequence, agent.StopEndTurn},
		{types.StopReasonToolUse, agent.StopToolUse},
		{types.StopReasonMaxTokens, agent.StopMaxTokens},
		{types.StopReasonGuardrailIntervened, agent.StopGuardrailIntervened},
		{types.StopReason("content_filtered"), "content_filtered"},
	}
	for _, tt := range tests {
		if got := mapStopReason(tt.reason); got != tt.want {
			t.Errorf("mapStopReason(%v) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestBedrockModel_InferenceConfig(t *testing.T) {
	temp := 0.3
	b := &BedrockModel{modelID: "m", temperature: &temp, maxTokens: 1024}

	cfg := b.inferenceConfig(&CallOptions{})
	if *cfg.Temperature != 0.3 {
		t.Errorf("expected construction-time temperature, got %v", *cfg.Temperature)
	}
	if *cfg.MaxTokens != 1024 {
		t.Errorf("expected construction-time max tokens, got %v", *cfg.MaxTokens)
	}

	// Per-call options win over construction-time defaults.
	override := BuildCallOptions(WithTemperature(0.9), WithMaxTokens(64))
	cfg = b.inferenceConfig(override)
	if *cfg.Temperature != 0.9 {
		t.Errorf("expected override temperature, got %v", *cfg.Temperature)
	}
	if *cfg.MaxTokens != 64 {
		t.Errorf("expected override max tokens, got %v", *cfg.MaxTokens)
	}
}
