package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/mcp"
)

const costExplorerSystemPrompt = `You are an AWS Cost Explorer assistant with access to AWS Cost Explorer tools.

Use the available tools to:
- Query AWS Cost Explorer data and metrics
- Analyze costs across services, regions and time periods
- Break down costs by tags, instance types and other dimensions
- Generate cost forecasts and predictions

Provide accurate cost analysis based on AWS Cost Explorer data.`

var costExplorerPrompts = []string{
	"Show me my AWS costs for the last 3 months grouped by service in us-east-1 region",
	"Break down my S3 costs by storage class for Q1 2025",
	"Show me costs for production resources tagged with Environment=prod",
	"What was my EC2 instance usage by instance type?",
	"Compare my AWS costs between April and May 2025",
	"How did my EC2 costs change from last month to this month?",
	"Why did my AWS bill increase in June compared to May?",
	"What caused the spike in my S3 costs last month?",
	"Forecast my AWS costs for next month",
	"Predict my EC2 spending for the next quarter",
	"What will my total AWS bill be for the rest of 2025?",
}

func costExplorerCmd() *cobra.Command {
	var prompts int

	cmd := &cobra.Command{
		Use:   "cost-explorer",
		Short: "Cost analysis agent backed by the Cost Explorer MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			command := cfg.MCP.Command
			mcpArgs := cfg.MCP.Args
			if command == "" {
				command = "uvx"
				mcpArgs = []string{"awslabs.cost-explorer-mcp-server@latest"}
			}
			env := cfg.MCP.Env
			if env == nil {
				env = map[string]string{"FASTMCP_LOG_LEVEL": "ERROR"}
			}

			client := mcp.NewStdioClient(command, mcpArgs, env)
			if err := client.Start(ctx); err != nil {
				return fmt.Errorf("start MCP server: %w", err)
			}
			defer client.Close()

			mcpTools, err := client.Tools(ctx)
			if err != nil {
				return fmt.Errorf("list MCP tools: %w", err)
			}

			model, err := newModel(ctx, cfg, nil)
			if err != nil {
				return err
			}

			analyst := agent.New(agent.Config{
				Name:         "cost-explorer",
				Model:        asAgentModel(model),
				SystemPrompt: costExplorerSystemPrompt,
				Tools:        mcpTools,
			})

			selected := samplePrompts(costExplorerPrompts, prompts)
			for _, prompt := range selected {
				fmt.Printf("**Prompt**: %s\n", prompt)
				reply, err := analyst.Run(ctx, prompt)
				if err != nil {
					fmt.Printf("An error occurred: %v\n", err)
					continue
				}
				fmt.Printf("%s\n%s\n", reply, strings.Repeat("-", 80))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&prompts, "prompts", 3, "number of example prompts to run")
	return cmd
}

// samplePrompts picks n distinct prompts at random, preserving nothing
// of the original order.
func samplePrompts(all []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(all) {
		n = len(all)
	}
	perm := rand.Perm(len(all))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, all[idx])
	}
	return out
}
