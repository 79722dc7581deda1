package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
	"github.com/tfelder/agentware/router"
)

const teacherSystemPrompt = `You are TeachAssist, a sophisticated educational orchestrator designed to coordinate educational support across multiple subjects. Your role is to:

1. Analyze incoming student queries and determine the most appropriate specialized agent to handle them:
   - Math Agent: For mathematical calculations, problems, and concepts
   - English Agent: For writing, grammar, literature, and composition
   - Language Agent: For translation and language-related queries
   - Computer Science Agent: For programming, algorithms, data structures, and code execution
   - General Assistant: For all other topics outside these specialized domains

2. Key Responsibilities:
   - Accurately classify student queries by subject area
   - Route requests to the appropriate specialized agent
   - Maintain context and coordinate multi-step problems
   - Ensure cohesive responses when multiple agents are needed

3. Decision Protocol:
   - If query involves calculations/numbers -> Math Agent
   - If query involves writing/literature/grammar -> English Agent
   - If query involves translation -> Language Agent
   - If query involves programming/coding/algorithms/computer science -> Computer Science Agent
   - If query is outside these specialized areas -> General Assistant
   - For complex queries, coordinate multiple agents as needed

Always confirm your understanding before routing to ensure accurate assistance.`

// specialistPrompts defines the system prompt for each subject agent.
var specialistPrompts = map[string]struct {
	prompt      string
	description string
}{
	"math_assistant": {
		prompt:      "You are a math tutor. Solve mathematical problems step by step, showing your work. Explain concepts clearly and verify your final answer.",
		description: "Solves mathematical calculations, problems, and explains math concepts",
	},
	"english_assistant": {
		prompt:      "You are an English tutor. Help with writing, grammar, literature, and composition. Give concrete corrections and explain the rules behind them.",
		description: "Helps with writing, grammar, literature, and composition",
	},
	"language_assistant": {
		prompt:      "You are a language tutor. Translate text accurately between languages and explain idioms, pronunciation, and usage.",
		description: "Translates text and answers language-related questions",
	},
	"computer_science_assistant": {
		prompt:      "You are a computer science tutor. Help with programming, algorithms, and data structures. Include working code examples where useful.",
		description: "Answers programming, algorithm, and data structure questions with code examples",
	},
	"general_assistant": {
		prompt:      "You are a helpful assistant for general knowledge questions outside math, English, languages, and computer science. Be concise and accurate.",
		description: "Handles general knowledge questions outside the specialized domains",
	},
}

// newTeachAssist builds the orchestrator agent with one sub-agent tool
// per subject.
func newTeachAssist(model agent.Model) *agent.Agent {
	var specialists []agent.Tool
	for name, spec := range specialistPrompts {
		sub := agent.New(agent.Config{
			Name:         name,
			Model:        model,
			SystemPrompt: spec.prompt,
		})
		specialists = append(specialists, agent.NewSubAgentTool(sub, spec.description))
	}

	return agent.New(agent.Config{
		Name:         "teachassist",
		Model:        model,
		SystemPrompt: teacherSystemPrompt,
		Tools:        specialists,
	})
}

func teachAssistCmd() *cobra.Command {
	var backend string
	var sessionID string

	cmd := &cobra.Command{
		Use:   "teachassist",
		Short: "Teaching assistant that routes between subject tutors and a personal knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			model, err := newModel(ctx, cfg, nil)
			if err != nil {
				return err
			}

			mem, closeMem, err := newMemoryBackend(ctx, cfg, backend)
			if err != nil {
				return err
			}
			defer closeMem()

			teacher := newTeachAssist(asAgentModel(model))
			rt := router.New(model)

			banner := "TeachAssist\n" +
				"Ask subject questions, or tell me things to remember:\n" +
				"  'How do I solve 2x + 5 = 15?'\n" +
				"  'Remember that my birthday is July 4'\n" +
				"  'What's my birthday?'"

			return repl(ctx, banner, func(ctx context.Context, input string) (string, error) {
				action, err := rt.DetermineAction(ctx, input)
				if err != nil {
					return "", err
				}
				if action == router.ActionTeacher {
					return teacher.Run(ctx, input)
				}
				return rt.RunKB(ctx, mem, sessionID, input)
			})
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "memory backend override (memory|redis|sqlite|kb)")
	cmd.Flags().StringVar(&sessionID, "session", "default", "knowledge base session ID")
	return cmd
}

// asAgentModel narrows an llm.LLM to the tool-use interface agents need.
func asAgentModel(model llm.LLM) agent.Model {
	m, ok := model.(agent.Model)
	if !ok {
		panic(fmt.Sprintf("model %T does not support tool use", model))
	}
	return m
}
