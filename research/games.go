// Package research implements browser-driven product research flows:
// finding top games for a console on GameFAQs and enriching each with
// Amazon pricing, screenshots, and JSON snapshots under per-run output
// directories.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tfelder/agentware/browser"
)

// GameInfo holds everything gathered about a single game.
type GameInfo struct {
	Title       string  `json:"title"`
	System      string  `json:"system"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Description string  `json:"description,omitempty"`
	AmazonURL   string  `json:"amazon_url,omitempty"`
	AmazonPrice string  `json:"amazon_price,omitempty"`
}

// SearchParams records what a run was asked to do.
type SearchParams struct {
	System     string `json:"system"`
	NumGames   int    `json:"num_games"`
	MaxWorkers int    `json:"max_workers"`
}

// SearchResults is the final snapshot written at the end of a run.
type SearchResults struct {
	RunID        string       `json:"run_id"`
	SearchParams SearchParams `json:"search_params"`
	Games        []GameInfo   `json:"games"`
}

type runMetadata struct {
	RunID        string       `json:"run_id"`
	Timestamp    string       `json:"timestamp"`
	SearchParams SearchParams `json:"search_params"`
}

// GameResearcher drives the GameFAQs plus Amazon research flow.
type GameResearcher struct {
	session   *browser.Session
	pool      *browser.Pool
	outputDir string
	logger    *slog.Logger
}

// NewGameResearcher creates a researcher writing run artifacts under
// outputDir.
func NewGameResearcher(session *browser.Session, outputDir string, maxWorkers int, logger *slog.Logger) *GameResearcher {
	if outputDir == "" {
		outputDir = "game_searches"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GameResearcher{
		session:   session,
		pool:      browser.NewPool(maxWorkers, browser.DefaultStagger, logger),
		outputDir: outputDir,
		logger:    logger,
	}
}

// NewRunID builds a unique, sortable run identifier.
func NewRunID() string {
	return fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}

// Run executes the full research flow: top games from GameFAQs, then
// Amazon details for each in parallel. Artifacts land under
// <outputDir>/<runID>/.
func (g *GameResearcher) Run(ctx context.Context, params SearchParams) (*SearchResults, error) {
	if params.NumGames <= 0 {
		params.NumGames = 5
	}

	runID := NewRunID()
	runDir := filepath.Join(g.outputDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	meta := runMetadata{
		RunID:        runID,
		Timestamp:    time.Now().Format(time.RFC3339),
		SearchParams: params,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return nil, err
	}

	results := &SearchResults{RunID: runID, SearchParams: params}

	g.logger.Info("finding top games", "system", params.System, "count", params.NumGames)
	games, err := g.findTopGames(ctx, params.System, params.NumGames)
	if err != nil {
		return nil, fmt.Errorf("find top games: %w", err)
	}
	if len(games) == 0 {
		g.logger.Warn("no games found", "system", params.System)
		return results, nil
	}

	g.logger.Info("researching games on amazon", "count", len(games))
	tasks := make([]browser.Task, len(games))
	for i := range games {
		game := &games[i]
		tasks[i] = browser.Task{
			Name: game.Title,
			Run: func(taskCtx context.Context) (map[string]string, error) {
				return g.searchAmazon(taskCtx, game, runDir)
			},
		}
	}
	for _, res := range g.pool.Run(ctx, tasks) {
		if res.Err != nil {
			g.logger.Error("amazon research failed", "game", res.Name, "err", res.Err)
		}
	}

	results.Games = games
	if err := writeJSON(filepath.Join(runDir, "results.json"), results); err != nil {
		return nil, err
	}
	return results, nil
}

// findTopGames pulls the top-rated list for a system from GameFAQs.
func (g *GameResearcher) findTopGames(ctx context.Context, system string, numGames int) ([]GameInfo, error) {
	taskCtx, cancel := g.session.NewContext(ctx)
	defer cancel()

	if err := g.session.Navigate(taskCtx, "https://gamefaqs.gamespot.com/games/systems"); err != nil {
		return nil, err
	}
	if err := g.session.Click(taskCtx, fmt.Sprintf("a[title=%q]", system)); err != nil {
		return nil, err
	}

	var rows []GameInfo
	// Each table row carries the title link plus release, genre, and
	// rating cells.
	expr := fmt.Sprintf(`
		Array.from(document.querySelectorAll('table.results tbody tr')).slice(0, %d).map(function(tr) {
			var cells = tr.querySelectorAll('td');
			var link = tr.querySelector('td a');
			return {
				title: link ? link.innerText.trim() : '',
				release_date: cells.length > 1 ? cells[1].innerText.trim() : '',
				genre: cells.length > 2 ? cells[2].innerText.trim() : '',
				rating: cells.length > 3 ? parseFloat(cells[3].innerText) || 0 : 0
			};
		}).filter(function(g) { return g.title.length > 0; })
	`, numGames)
	if err := g.session.ExtractJSON(taskCtx, expr, &rows); err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].System = system
	}
	return rows, nil
}

// searchAmazon looks a game up on Amazon, capturing search and product
// screenshots and a per-game JSON snapshot.
func (g *GameResearcher) searchAmazon(ctx context.Context, game *GameInfo, runDir string) (map[string]string, error) {
	gameDir := filepath.Join(runDir, sanitizeName(game.Title))
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		return nil, fmt.Errorf("create game dir: %w", err)
	}

	taskCtx, cancel := g.session.NewContext(ctx)
	defer cancel()

	if err := g.session.Navigate(taskCtx, "https://www.amazon.com"); err != nil {
		return nil, err
	}
	if err := g.session.SearchFor(taskCtx, "#twotabsearchtextbox", fmt.Sprintf("%s %s", game.Title, game.System)); err != nil {
		return nil, err
	}
	if err := g.session.Screenshot(taskCtx, filepath.Join(gameDir, "amazon_search.png")); err != nil {
		g.logger.Warn("search screenshot failed", "game", game.Title, "err", err)
	}

	if err := g.session.Click(taskCtx, "div[data-component-type='s-search-result'] h2 a"); err != nil {
		return nil, err
	}
	if err := g.session.Screenshot(taskCtx, filepath.Join(gameDir, "amazon_product.png")); err != nil {
		g.logger.Warn("product screenshot failed", "game", game.Title, "err", err)
	}

	var product struct {
		AmazonPrice string `json:"amazon_price"`
		URL         string `json:"url"`
	}
	err := g.session.ExtractJSON(taskCtx, `
		(function() {
			var price = document.querySelector('.a-price .a-offscreen');
			return {
				amazon_price: price ? price.innerText.trim() : '',
				url: location.href
			};
		})()
	`, &product)
	if err != nil {
		return nil, err
	}

	game.AmazonPrice = product.AmazonPrice
	game.AmazonURL = product.URL

	bullets, err := g.session.ExtractText(taskCtx, "#feature-bullets li span")
	if err != nil {
		g.logger.Warn("feature bullets extraction failed", "game", game.Title, "err", err)
	} else if desc := joinBullets(bullets); desc != "" {
		game.Description = desc
	}

	if err := writeJSON(filepath.Join(gameDir, "game_data.json"), game); err != nil {
		return nil, err
	}

	return map[string]string{
		"price": game.AmazonPrice,
		"url":   game.AmazonURL,
	}, nil
}

// joinBullets flattens feature-bullet fragments into one description,
// skipping blanks and the "About this item" heading.
func joinBullets(bullets []string) string {
	var kept []string
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" || strings.EqualFold(b, "about this item") {
			continue
		}
		kept = append(kept, b)
	}
	return strings.Join(kept, "\n")
}

func sanitizeName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", ":", "")
	return replacer.Replace(name)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
