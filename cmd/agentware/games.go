package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/browser"
	"github.com/tfelder/agentware/research"
)

func gamesCmd() *cobra.Command {
	var system string
	var numGames int
	var workers int

	cmd := &cobra.Command{
		Use:   "games",
		Short: "Research top games for a console and their Amazon listings",
		Long:  "Finds the top-rated games for a system on GameFAQs, then looks each up on Amazon in parallel, saving screenshots and JSON snapshots under a per-run directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			session := browser.NewSession(browser.SessionConfig{
				ProfileDir: cfg.Browser.ProfileDir,
				Headless:   cfg.Browser.Headless,
				Logger:     slog.Default(),
			})

			researcher := research.NewGameResearcher(session, cfg.Browser.OutputDir, workers, slog.Default())
			results, err := researcher.Run(ctx, research.SearchParams{
				System:     system,
				NumGames:   numGames,
				MaxWorkers: workers,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Run %s: researched %d games for %s\n", results.RunID, len(results.Games), system)
			for _, game := range results.Games {
				price := game.AmazonPrice
				if price == "" {
					price = "N/A"
				}
				fmt.Printf("  %-40s %s\n", game.Title, price)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&system, "system", "PlayStation 5", "console system to research")
	cmd.Flags().IntVar(&numGames, "games", 5, "number of top games to research")
	cmd.Flags().IntVar(&workers, "workers", browser.DefaultMaxWorkers, "maximum concurrent browser sessions")
	return cmd
}
