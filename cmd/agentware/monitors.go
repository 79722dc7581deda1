package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/browser"
	"github.com/tfelder/agentware/research"
)

func monitorsCmd() *cobra.Command {
	var workers int
	var models []string

	cmd := &cobra.Command{
		Use:   "monitors",
		Short: "Compare display monitors on Amazon with parallel browser sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			session := browser.NewSession(browser.SessionConfig{
				ProfileDir: cfg.Browser.ProfileDir,
				Headless:   cfg.Browser.Headless,
				Logger:     slog.Default(),
			})

			comparer := research.NewMonitorComparer(session, workers, slog.Default())

			fmt.Printf("Starting parallel execution with %d workers\n", workers)
			results, elapsed := comparer.Compare(ctx, models)
			fmt.Printf("Parallel execution completed in %.2f seconds\n", elapsed.Seconds())
			fmt.Print(research.RenderComparisonTable(results))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", browser.DefaultMaxWorkers, "maximum concurrent browser sessions")
	cmd.Flags().StringSliceVar(&models, "model", nil, "monitor model to look up (repeatable; defaults to a built-in set)")
	return cmd
}
