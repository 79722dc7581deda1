// Package agent provides the core message, tool, and agent-loop types.
//
// An Agent binds a model adapter, a system prompt, and a set of callable
// tools, and drives the model in a converse loop: the model either answers
// directly or requests tool calls, whose results are fed back until the
// model produces a final answer.
package agent

import (
	"fmt"
	"time"
)

// Message represents a message exchanged between the user, the model,
// and tools.
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults is set on tool messages carrying execution results back
	// to the model.
	ToolResults []ToolResultBlock `json:"tool_results,omitempty"`
}

// NewMessage creates a new message with the given role and content.
func NewMessage(role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata adds metadata to the message and returns it for chaining.
func (m *Message) WithMetadata(key string, value interface{}) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
	return m
}

// Validate checks the message against role and size constraints.
func (m *Message) Validate() error {
	if m.Role == "" {
		return fmt.Errorf("message role cannot be empty")
	}
	allowedRoles := map[string]bool{
		"user":      true,
		"assistant": true,
		"system":    true,
		"tool":      true,
		"agent":     true,
	}
	if !allowedRoles[m.Role] {
		return fmt.Errorf("invalid message role: %s. Must be one of: user, assistant, system, tool, agent", m.Role)
	}
	const maxContentSize = 1024 * 1024 // 1MB
	if len(m.Content) > maxContentSize {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d bytes)", maxContentSize, len(m.Content))
	}
	return nil
}

// ToolCall is a model request to execute a named tool with JSON parameters.
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ToolResultBlock carries one tool execution result back to the model,
// correlated by the tool call ID.
type ToolResultBlock struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}
