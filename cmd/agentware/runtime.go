package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tfelder/agentware/config"
	"github.com/tfelder/agentware/llm"
	"github.com/tfelder/agentware/memory"
	"github.com/tfelder/agentware/middleware"
)

// newModel builds the hosted model adapter with retry and timeout
// wrapping applied, optionally with a guardrail attached.
func newModel(ctx context.Context, cfg *config.Config, guardrail *llm.GuardrailConfig) (llm.LLM, error) {
	base, err := llm.NewBedrockModel(ctx, llm.BedrockConfig{
		ModelID:     cfg.Bedrock.ModelID,
		Region:      cfg.Bedrock.Region,
		Profile:     cfg.Bedrock.Profile,
		Temperature: cfg.Bedrock.Temperature,
		MaxTokens:   cfg.Bedrock.MaxTokens,
		Guardrail:   guardrail,
	})
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}

	var model llm.LLM = base
	model = middleware.NewTimeoutModel(model, middleware.DefaultCallTimeout)
	model = middleware.NewRetryModel(model, middleware.DefaultRetryConfig())
	return model, nil
}

// newMemoryBackend builds the conversation store named by the config,
// honoring a command-line override when non-empty.
func newMemoryBackend(ctx context.Context, cfg *config.Config, override string) (memory.Memory, func(), error) {
	backend := cfg.Memory.Backend
	if override != "" {
		backend = override
	}

	noop := func() {}
	switch backend {
	case "memory":
		return memory.NewInMemory(cfg.Memory.MaxTurns), noop, nil
	case "redis":
		mem, err := memory.NewRedisMemory(cfg.Memory.RedisURL, 0, "agentware")
		if err != nil {
			return nil, nil, err
		}
		return mem, func() { _ = mem.Close() }, nil
	case "sqlite":
		mem, err := memory.NewSQLiteMemory(cfg.Memory.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return mem, func() { _ = mem.Close() }, nil
	case "kb":
		mem, err := memory.NewKnowledgeBase(ctx, memory.KnowledgeBaseConfig{
			KnowledgeBaseID: cfg.Knowledge.KnowledgeBaseID,
			DataSourceID:    cfg.Knowledge.DataSourceID,
			Bucket:          cfg.Knowledge.Bucket,
			Prefix:          cfg.Knowledge.Prefix,
			Region:          cfg.Bedrock.Region,
			Profile:         cfg.Bedrock.Profile,
		})
		if err != nil {
			return nil, nil, err
		}
		return mem, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown memory backend: %s", backend)
	}
}

// repl runs an interactive prompt loop. Handler errors are printed and
// the loop continues; "exit" or "quit" ends it.
func repl(ctx context.Context, banner string, handle func(ctx context.Context, input string) (string, error)) error {
	fmt.Println(banner)
	fmt.Println("Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			fmt.Println("\nGoodbye!")
			return nil
		}

		reply, err := handle(ctx, input)
		if err != nil {
			fmt.Printf("An error occurred: %v\n", err)
			fmt.Println("Please try again.")
			continue
		}
		fmt.Println(reply)
	}
}
