package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/memory"
	"github.com/tfelder/agentware/tools"
)

const memorySystemPrompt = `You are a personal assistant that maintains context by remembering user details.
Use the memory tool to store facts the user shares, retrieve memories relevant to their questions,
and list everything remembered when asked. Base your answers on retrieved memories and say so when
nothing relevant is stored.`

func memoryCmd() *cobra.Command {
	var backend string
	var runDemo bool

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Personal assistant that remembers user details across a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			userID := os.Getenv("USER_ID")
			if userID == "" {
				userID = "Alex"
			}

			model, err := newModel(ctx, cfg, nil)
			if err != nil {
				return err
			}

			mem, closeMem, err := newMemoryBackend(ctx, cfg, backend)
			if err != nil {
				return err
			}
			defer closeMem()

			assistant := agent.New(agent.Config{
				Name:         "memory",
				Model:        asAgentModel(model),
				SystemPrompt: memorySystemPrompt,
				Tools:        []agent.Tool{tools.NewMemoryTool(mem, userID)},
			})

			if runDemo {
				return demoMemories(ctx, assistant, mem, userID)
			}

			banner := "Memory Agent\n" +
				"Try these examples:\n" +
				"  'I am 45 years old'\n" +
				"  'What is my age?'\n" +
				"  'Do I have any pets?'\n" +
				"  'What do you know about me?'"

			return repl(ctx, banner, func(ctx context.Context, input string) (string, error) {
				return assistant.Run(ctx, input)
			})
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "memory backend override (memory|redis|sqlite|kb)")
	cmd.Flags().BoolVar(&runDemo, "demo", false, "seed demo memories, run a scripted exchange, and exit")
	return cmd
}

// demoMemories seeds a few facts and runs a short scripted conversation.
func demoMemories(ctx context.Context, assistant *agent.Agent, mem memory.Memory, userID string) error {
	seed := fmt.Sprintf("My name is %s. I like to travel and stay in Airbnbs rather than hotels. "+
		"I am planning a trip to Japan next spring. I enjoy hiking and outdoor photography as hobbies. "+
		"I have a dog named Max. My favorite cuisine is Italian food.", userID)
	if err := mem.Store(ctx, userID, agent.NewMessage("user", seed), nil); err != nil {
		return fmt.Errorf("seed memories: %w", err)
	}

	for _, prompt := range []string{
		"I work in marketing.",
		"I am 32 years old.",
		"What do you remember about me?",
	} {
		fmt.Printf("\n> %s\n", prompt)
		reply, err := assistant.Run(ctx, prompt)
		if err != nil {
			fmt.Printf("An error occurred: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
	return nil
}
