package tools

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/tfelder/agentware/agent"
)

// Arithmetic returns the basic math tools served by the demo tool
// server: add, subtract, multiply, and divide.
func Arithmetic() []agent.Tool {
	binary := func(name, verb string, fn func(a, b float64) (float64, error)) agent.Tool {
		schema := map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"a": map[string]interface{}{"type": "number", "description": "First number"},
				"b": map[string]interface{}{"type": "number", "description": "Second number"},
			},
			"required": []string{"a", "b"},
		}
		return agent.NewFuncTool(name, fmt.Sprintf("%s two numbers", verb), schema,
			func(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
				a, aok := params["a"].(float64)
				b, bok := params["b"].(float64)
				if !aok || !bok {
					return agent.NewToolError("parameters a and b must be numbers"), nil
				}
				out, err := fn(a, b)
				if err != nil {
					return agent.NewToolError(err.Error()), nil
				}
				return agent.NewToolResult(out), nil
			})
	}

	return []agent.Tool{
		binary("add", "Add", func(a, b float64) (float64, error) { return a + b, nil }),
		binary("subtract", "Subtract", func(a, b float64) (float64, error) { return a - b, nil }),
		binary("multiply", "Multiply", func(a, b float64) (float64, error) { return a * b, nil }),
		binary("divide", "Divide", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("cannot divide by zero")
			}
			return a / b, nil
		}),
	}
}

// GreetTool greets a person by name.
func GreetTool() agent.Tool {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name": map[string]interface{}{"type": "string", "description": "Name of the person to greet"},
		},
		"required": []string{"name"},
	}
	return agent.NewFuncTool("greet", "Greet a person by name", schema,
		func(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
			name, _ := params["name"].(string)
			if name == "" {
				name = "there"
			}
			return agent.NewToolResult(fmt.Sprintf("Hello, %s! Nice to meet you.", name)), nil
		})
}

var jokes = []string{
	"Why don't scientists trust atoms? Because they make up everything!",
	"Why did the scarecrow win an award? Because he was outstanding in his field!",
	"What do you call a fake noodle? An impasta!",
	"Why don't eggs tell jokes? They'd crack each other up!",
	"What do you call a bear with no teeth? A gummy bear!",
}

// TellJokeTool returns a random joke from a small fixed set.
func TellJokeTool() agent.Tool {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
	return agent.NewFuncTool("tell_joke", "Tell a random joke", schema,
		func(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
			return agent.NewToolResult(jokes[rand.Intn(len(jokes))]), nil
		})
}

// HelloWorldTools is the full tool set exposed by the demo MCP server.
func HelloWorldTools() []agent.Tool {
	out := []agent.Tool{GreetTool()}
	out = append(out, Arithmetic()...)
	out = append(out, TellJokeTool())
	return out
}
