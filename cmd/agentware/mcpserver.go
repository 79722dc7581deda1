package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/mcp"
	"github.com/tfelder/agentware/tools"
)

func mcpServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the hello-world tool set over MCP on stdio",
		Long:  "Runs an MCP server on stdin/stdout exposing greet, add, subtract, multiply, divide, and tell_joke. Point any MCP client at this binary to use them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			server := mcp.NewServer("hello-world", tools.HelloWorldTools())
			return server.Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
