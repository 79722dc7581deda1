package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/tfelder/agentware/memory"
)

func TestMemoryTool_StoreAndList(t *testing.T) {
	mem := memory.NewInMemory(0)
	tool := NewMemoryTool(mem, "alex")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"action":  "store",
		"content": "I have a dog named Max",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("store failed: %s", result.Error)
	}
	if result.Data != "stored" {
		t.Errorf("expected 'stored', got %v", result.Data)
	}

	result, err = tool.Execute(context.Background(), map[string]interface{}{
		"action": "list",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, _ := result.Data.(string)
	if !strings.Contains(text, "1. I have a dog named Max") {
		t.Errorf("list output missing stored memory: %q", text)
	}
}

func TestMemoryTool_ListEmpty(t *testing.T) {
	tool := NewMemoryTool(memory.NewInMemory(0), "alex")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"action": "list",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Data != "No memories stored." {
		t.Errorf("expected empty-store message, got %v", result.Data)
	}
}

func TestMemoryTool_Retrieve(t *testing.T) {
	mem := memory.NewInMemory(0)
	tool := NewMemoryTool(mem, "alex")

	for _, content := range []string{
		"I enjoy hiking and outdoor photography",
		"My favorite cuisine is Italian food",
	} {
		if _, err := tool.Execute(context.Background(), map[string]interface{}{
			"action":  "store",
			"content": content,
		}); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"action": "retrieve",
		"query":  "favorite cuisine food",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, _ := result.Data.(string)
	if !strings.Contains(text, "Italian food") {
		t.Errorf("retrieve missed relevant memory: %q", text)
	}
}

func TestMemoryTool_StoreRequiresContent(t *testing.T) {
	tool := NewMemoryTool(memory.NewInMemory(0), "alex")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"action": "store",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("expected tool error for store without content")
	}
	if result.Error != "store requires content" {
		t.Errorf("unexpected error message: %q", result.Error)
	}
}

func TestMemoryTool_UnknownAction(t *testing.T) {
	tool := NewMemoryTool(memory.NewInMemory(0), "alex")

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"action": "forget",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("expected tool error for unknown action")
	}
	if !strings.Contains(result.Error, "unknown action: forget") {
		t.Errorf("unexpected error message: %q", result.Error)
	}
}

func TestMemoryTool_SessionsIsolated(t *testing.T) {
	mem := memory.NewInMemory(0)
	alex := NewMemoryTool(mem, "alex")
	kim := NewMemoryTool(mem, "kim")

	if _, err := alex.Execute(context.Background(), map[string]interface{}{
		"action":  "store",
		"content": "I am 32 years old",
	}); err != nil {
		t.Fatalf("store: %v", err)
	}

	result, err := kim.Execute(context.Background(), map[string]interface{}{
		"action": "list",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Data != "No memories stored." {
		t.Errorf("sessions leaked: %v", result.Data)
	}
}
