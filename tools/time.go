package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/tfelder/agentware/agent"
)

// CurrentTimeTool reports the current time, optionally in a named IANA
// time zone.
func CurrentTimeTool() agent.Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"timezone": map[string]interface{}{
				"type":        "string",
				"description": "IANA time zone name, e.g. America/New_York (default UTC)",
			},
		},
	}
	return agent.NewFuncTool("current_time", "Get the current date and time", schema,
		func(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
			loc := time.UTC
			if name, ok := params["timezone"].(string); ok && name != "" {
				parsed, err := time.LoadLocation(name)
				if err != nil {
					return agent.NewToolError(fmt.Sprintf("unknown timezone %q: %v", name, err)), nil
				}
				loc = parsed
			}
			return agent.NewToolResult(time.Now().In(loc).Format(time.RFC3339)), nil
		})
}
