package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/memory"
)

// MemoryTool exposes a memory backend to the model as a single tool
// with store, retrieve, and list actions.
type MemoryTool struct {
	mem       memory.Memory
	sessionID string
}

// NewMemoryTool creates the tool bound to one session.
func NewMemoryTool(mem memory.Memory, sessionID string) *MemoryTool {
	return &MemoryTool{mem: mem, sessionID: sessionID}
}

func (m *MemoryTool) Name() string { return "memory" }

func (m *MemoryTool) Description() string {
	return "Store user details, retrieve memories relevant to a query, or list everything remembered. Use action 'store' with content, 'retrieve' with a query, or 'list'."
}

func (m *MemoryTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"action": map[string]interface{}{
				"type":        "string",
				"description": "What to do with the memory store",
				"enum":        []string{"store", "retrieve", "list"},
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Text to remember (store only)",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to look up (retrieve only)",
			},
		},
		"required": []string{"action"},
	}
}

func (m *MemoryTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	action, _ := params["action"].(string)
	switch action {
	case "store":
		content, _ := params["content"].(string)
		if content == "" {
			return agent.NewToolError("store requires content"), nil
		}
		if err := m.mem.Store(ctx, m.sessionID, agent.NewMessage("user", content), nil); err != nil {
			return agent.NewToolError(fmt.Sprintf("store failed: %v", err)), nil
		}
		return agent.NewToolResult("stored"), nil

	case "retrieve":
		query, _ := params["query"].(string)
		results, err := m.mem.Retrieve(ctx, m.sessionID, memory.RetrieveOptions{Query: query})
		if err != nil {
			return agent.NewToolError(fmt.Sprintf("retrieve failed: %v", err)), nil
		}
		return agent.NewToolResult(renderMemories(results)), nil

	case "list":
		results, err := m.mem.List(ctx, m.sessionID)
		if err != nil {
			return agent.NewToolError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return agent.NewToolResult(renderMemories(results)), nil

	default:
		return agent.NewToolError(fmt.Sprintf("unknown action: %s", action)), nil
	}
}

func renderMemories(results []*agent.Message) string {
	if len(results) == 0 {
		return "No memories stored."
	}
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.Content)
	}
	return sb.String()
}
