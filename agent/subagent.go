package agent

import (
	"context"
	"fmt"
)

// SubAgentTool exposes an Agent as a Tool so an orchestrator agent can
// route queries to specialists (the agents-as-tools arrangement).
//
// The orchestrator's model sees the specialist as an ordinary tool taking a
// single "query" parameter; invoking it runs a full conversation turn on
// the specialist.
type SubAgentTool struct {
	agent       *Agent
	description string
}

// NewSubAgentTool wraps an agent as a tool with the given description.
func NewSubAgentTool(a *Agent, description string) *SubAgentTool {
	return &SubAgentTool{agent: a, description: description}
}

func (s *SubAgentTool) Name() string        { return s.agent.Name() }
func (s *SubAgentTool) Description() string { return s.description }

func (s *SubAgentTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The question to hand to this specialist",
			},
		},
		"required": []string{"query"},
	}
}

// Execute runs the wrapped agent against the query parameter.
func (s *SubAgentTool) Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return NewToolError("missing required parameter: query"), nil
	}
	answer, err := s.agent.Run(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sub-agent %s: %w", s.agent.Name(), err)
	}
	return NewToolResult(answer), nil
}
