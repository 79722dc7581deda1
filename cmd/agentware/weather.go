package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/tools"
)

const weatherSystemPrompt = `You are a weather assistant with HTTP capabilities. You can:

1. Make HTTP requests to the National Weather Service API
2. Process and display weather forecast data
3. Provide weather information for locations in the United States

When retrieving weather information:
1. First get the coordinates or grid information using https://api.weather.gov/points/{latitude},{longitude}
2. Then use the returned forecast URL to get the actual forecast

When displaying responses:
- Format weather data in a human-readable way
- Highlight important information like temperature, precipitation, and alerts
- Handle errors appropriately
- Convert technical terms to user-friendly language

Always explain the weather conditions clearly and provide context for the forecast.`

func weatherCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Weather forecaster using the National Weather Service API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			model, err := newModel(ctx, cfg, nil)
			if err != nil {
				return err
			}

			forecaster := agent.New(agent.Config{
				Name:         "weather",
				Model:        asAgentModel(model),
				SystemPrompt: weatherSystemPrompt,
				Tools:        []agent.Tool{tools.NewHTTPRequestTool(nil)},
			})

			banner := "Weather Forecaster\n" +
				"Ask about the weather in any US location:\n" +
				"  'What's the weather like in San Francisco?'\n" +
				"  'Will it rain tomorrow in Miami?'"

			return repl(ctx, banner, func(ctx context.Context, input string) (string, error) {
				return forecaster.Run(ctx, input)
			})
		},
	}
}
