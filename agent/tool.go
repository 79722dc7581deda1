package agent

import "context"

// Tool represents an executable capability that agents can use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// InputSchema returns the JSON schema describing the tool's parameters.
	InputSchema() map[string]interface{}

	// Execute runs the tool with the given parameters and returns a result.
	Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewToolResult creates a successful tool result.
func NewToolResult(data interface{}) *ToolResult {
	return &ToolResult{Success: true, Data: data}
}

// NewToolError creates a tool result representing an error.
func NewToolError(err string) *ToolResult {
	return &ToolResult{Success: false, Error: err}
}

// ToolSpec is the wire-level description of a tool handed to the model:
// name, description, and a JSON schema for its input.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// SpecFor builds the ToolSpec for a tool.
func SpecFor(t Tool) ToolSpec {
	schema := t.InputSchema()
	if schema == nil {
		schema = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
	}
	return ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: schema,
	}
}

// FuncTool adapts a plain function into a Tool. It is the Go analogue of
// declaring a tool from a function and its docstring.
type FuncTool struct {
	ToolName string
	Desc     string
	Schema   map[string]interface{}
	Fn       func(ctx context.Context, params map[string]interface{}) (*ToolResult, error)
}

// NewFuncTool builds a FuncTool from its parts.
func NewFuncTool(name, desc string, schema map[string]interface{}, fn func(ctx context.Context, params map[string]interface{}) (*ToolResult, error)) *FuncTool {
	return &FuncTool{ToolName: name, Desc: desc, Schema: schema, Fn: fn}
}

func (f *FuncTool) Name() string                        { return f.ToolName }
func (f *FuncTool) Description() string                 { return f.Desc }
func (f *FuncTool) InputSchema() map[string]interface{} { return f.Schema }

func (f *FuncTool) Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	return f.Fn(ctx, params)
}
