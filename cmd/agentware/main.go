// Command agentware bundles a set of runnable agent demos behind one
// binary: a teaching assistant with knowledge-base memory, a weather
// forecaster, an MCP tool server and client, browser research agents,
// and Telegram and web chat front-ends.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/config"
	"github.com/tfelder/agentware/observability"
)

var (
	version    = "0.1.0"
	configPath string
	cfg        *config.Config
)

func main() {
	root := &cobra.Command{
		Use:     "agentware",
		Short:   "Agentware: runnable LLM agent demos",
		Long:    "Agentware is a collection of agent demos built on hosted models: tool use, knowledge-base memory, MCP servers, browser research, and chat front-ends.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			observability.ConfigureLogging(logLevel(cfg.Logging.Level), cfg.Logging.Structured, cfg.Logging.Tracing)
			if cfg.Logging.Tracing {
				if _, err := observability.InitTracing("agentware", true); err != nil {
					return fmt.Errorf("init tracing: %w", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cfg != nil && cfg.Logging.Tracing {
				if err := observability.Shutdown(context.Background()); err != nil {
					slog.Debug("tracer shutdown failed", "err", err)
				}
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "agentware.yaml", "path to config file")

	root.AddCommand(teachAssistCmd())
	root.AddCommand(weatherCmd())
	root.AddCommand(memoryCmd())
	root.AddCommand(costExplorerCmd())
	root.AddCommand(mcpServeCmd())
	root.AddCommand(monitorsCmd())
	root.AddCommand(gamesCmd())
	root.AddCommand(telegramCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(guardrailsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
