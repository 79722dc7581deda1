package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/tfelder/agentware/agent"
)

func findTool(t *testing.T, toolList []agent.Tool, name string) agent.Tool {
	t.Helper()
	for _, tool := range toolList {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func TestArithmetic(t *testing.T) {
	toolList := Arithmetic()
	ctx := context.Background()

	tests := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"add", 2, 3, 5},
		{"subtract", 10, 4, 6},
		{"multiply", 6, 7, 42},
		{"divide", 9, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			tool := findTool(t, toolList, tt.op)
			result, err := tool.Execute(ctx, map[string]interface{}{"a": tt.a, "b": tt.b})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if !result.Success {
				t.Fatalf("unexpected failure: %s", result.Error)
			}
			if got := result.Data.(float64); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArithmetic_DivideByZero(t *testing.T) {
	tool := findTool(t, Arithmetic(), "divide")
	result, err := tool.Execute(context.Background(), map[string]interface{}{"a": 1.0, "b": 0.0})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error != "cannot divide by zero" {
		t.Errorf("unexpected error %q", result.Error)
	}
}

func TestArithmetic_BadParams(t *testing.T) {
	tool := findTool(t, Arithmetic(), "add")
	result, _ := tool.Execute(context.Background(), map[string]interface{}{"a": "two", "b": 3.0})
	if result.Success {
		t.Fatal("expected failure on non-numeric parameter")
	}
}

func TestGreetTool(t *testing.T) {
	tool := GreetTool()
	ctx := context.Background()

	result, err := tool.Execute(ctx, map[string]interface{}{"name": "Alice"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Data != "Hello, Alice! Nice to meet you." {
		t.Errorf("unexpected greeting %q", result.Data)
	}

	result, _ = tool.Execute(ctx, nil)
	if !strings.Contains(result.Data.(string), "there") {
		t.Errorf("expected fallback greeting, got %q", result.Data)
	}
}

func TestTellJokeTool(t *testing.T) {
	tool := TellJokeTool()
	result, err := tool.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	joke := result.Data.(string)
	found := false
	for _, known := range jokes {
		if joke == known {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("joke %q not in the known set", joke)
	}
}

func TestHelloWorldTools_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, tool := range HelloWorldTools() {
		if seen[tool.Name()] {
			t.Errorf("duplicate tool name %q", tool.Name())
		}
		seen[tool.Name()] = true
		if tool.InputSchema() == nil {
			t.Errorf("tool %q has no input schema", tool.Name())
		}
	}
}
