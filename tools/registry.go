// Package tools provides the tool registry and the built-in callable
// tools the demos register on their agents.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tfelder/agentware/agent"
)

// Registry manages available tools for an agent.
type Registry struct {
	tools map[string]agent.Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]agent.Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool agent.Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("tool '%s' is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (agent.Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered tools in name order.
func (r *Registry) All() []agent.Tool {
	names := r.List()
	out := make([]agent.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.tools[name])
	}
	return out
}

// Descriptions returns a formatted description of all available tools.
func (r *Registry) Descriptions() string {
	if len(r.tools) == 0 {
		return "No tools available."
	}
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, name := range r.List() {
		fmt.Fprintf(&sb, "- %s: %s\n", name, r.tools[name].Description())
	}
	return sb.String()
}
