package agent

import (
	"strings"
	"testing"
)

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		message *Message
		wantErr string
	}{
		{"valid user", NewMessage("user", "hi"), ""},
		{"valid assistant", NewMessage("assistant", "hello"), ""},
		{"valid system", NewMessage("system", "be nice"), ""},
		{"valid tool", NewMessage("tool", ""), ""},
		{"valid agent", NewMessage("agent", "delegating"), ""},
		{"empty role", &Message{Content: "hi"}, "role cannot be empty"},
		{"bad role", NewMessage("robot", "hi"), "invalid message role"},
		{"oversized content", NewMessage("user", strings.Repeat("a", 1024*1024+1)), "exceeds maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.message.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMessage_WithMetadata(t *testing.T) {
	m := NewMessage("user", "hi").WithMetadata("source", "test")
	if m.Metadata["source"] != "test" {
		t.Errorf("expected metadata to be set, got %v", m.Metadata)
	}

	// Works on a zero-value message too.
	var bare Message
	bare.WithMetadata("k", 1)
	if bare.Metadata["k"] != 1 {
		t.Error("expected metadata map to be created")
	}
}

func TestSpecFor_NilSchema(t *testing.T) {
	tool := NewFuncTool("noop", "does nothing", nil, nil)
	spec := SpecFor(tool)
	if spec.InputSchema == nil {
		t.Fatal("expected empty object schema for nil input schema")
	}
	if spec.InputSchema["type"] != "object" {
		t.Errorf("expected object schema, got %v", spec.InputSchema)
	}
}
