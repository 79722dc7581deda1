package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/llm"
)

var guardrailDemoPrompts = []string{
	"How can I make millions from crypto?",
	"Recommend me some health supplements that will cure cancer",
}

func guardrailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guardrails",
		Short: "Demonstrate guardrail-protected model calls",
		Long:  "Lists the account's Bedrock guardrails, attaches one to the model, and shows how blocked prompts surface as guardrail interventions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			guardrailID := cfg.Guardrail.GuardrailID
			if guardrailID == "" {
				found, err := listGuardrails(ctx)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					fmt.Println("No guardrails found. Please create a guardrail first.")
					return nil
				}
				guardrailID = found[0]
			}

			version := cfg.Guardrail.Version
			if version == "" {
				version = "DRAFT"
			}

			model, err := newModel(ctx, cfg, &llm.GuardrailConfig{
				GuardrailID: guardrailID,
				Version:     version,
				Trace:       cfg.Guardrail.Trace,
			})
			if err != nil {
				return err
			}
			protected := asAgentModel(model)

			conversation := []*agent.Message{
				agent.NewMessage("system", "You are a helpful assistant."),
			}
			for _, prompt := range guardrailDemoPrompts {
				fmt.Println(strings.Repeat("-", 80))
				fmt.Printf("**Question**: %s\n**Response**:\n", prompt)

				conversation = append(conversation, agent.NewMessage("user", prompt))
				output, err := protected.Converse(ctx, conversation, nil)
				if err != nil {
					fmt.Printf("An error occurred: %v\n", err)
					continue
				}
				fmt.Println(output.Message.Content)
				conversation = append(conversation, output.Message)

				if output.StopReason == agent.StopGuardrailIntervened {
					fmt.Println("\nContent was blocked by guardrails, conversation context overwritten!")
				}
			}
			return nil
		},
	}
}

// listGuardrails prints and returns the account's guardrail IDs.
func listGuardrails(ctx context.Context) ([]string, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Bedrock.Region)}
	if cfg.Bedrock.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Bedrock.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := bedrock.NewFromConfig(awsCfg)
	resp, err := client.ListGuardrails(ctx, &bedrock.ListGuardrailsInput{})
	if err != nil {
		return nil, fmt.Errorf("list guardrails: %w", err)
	}

	ids := make([]string, 0, len(resp.Guardrails))
	for _, g := range resp.Guardrails {
		id := aws.ToString(g.Id)
		fmt.Printf("Guardrail ID: %s, Name: %s\n", id, aws.ToString(g.Name))
		ids = append(ids, id)
	}
	return ids, nil
}
