package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tfelder/agentware/browser"
)

// DefaultMonitorModels is the comparison set used when none is given.
var DefaultMonitorModels = []string{
	"Dell S2722QC 27-inch 4K USB-C Monitor",
	"LG 27GP850-B 27-inch Ultragear Gaming Monitor",
	"Samsung Odyssey G7 32-inch Gaming Monitor",
}

// MonitorComparer looks up display monitors on Amazon in parallel and
// renders a comparison table.
type MonitorComparer struct {
	session *browser.Session
	pool    *browser.Pool
	logger  *slog.Logger
}

// NewMonitorComparer creates the comparer.
func NewMonitorComparer(session *browser.Session, maxWorkers int, logger *slog.Logger) *MonitorComparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorComparer{
		session: session,
		pool:    browser.NewPool(maxWorkers, browser.DefaultStagger, logger),
		logger:  logger,
	}
}

// Compare researches every model concurrently and returns results in
// input order. A failed lookup still produces a row with "N/A" fields.
func (m *MonitorComparer) Compare(ctx context.Context, models []string) ([]browser.Result, time.Duration) {
	if len(models) == 0 {
		models = DefaultMonitorModels
	}

	tasks := make([]browser.Task, len(models))
	for i, model := range models {
		model := model
		tasks[i] = browser.Task{
			Name: model,
			Run: func(taskCtx context.Context) (map[string]string, error) {
				return m.checkMonitor(taskCtx, model)
			},
		}
	}

	start := time.Now()
	results := m.pool.Run(ctx, tasks)
	return results, time.Since(start)
}

// checkMonitor searches Amazon for one model and extracts its price,
// rating, and screen size.
func (m *MonitorComparer) checkMonitor(ctx context.Context, model string) (map[string]string, error) {
	taskCtx, cancel := m.session.NewContext(ctx)
	defer cancel()

	if err := m.session.Navigate(taskCtx, "https://www.amazon.com"); err != nil {
		return nil, err
	}
	if err := m.session.SearchFor(taskCtx, "#twotabsearchtextbox", model); err != nil {
		return nil, err
	}
	if err := m.session.Click(taskCtx, "div[data-component-type='s-search-result'] h2 a"); err != nil {
		return nil, err
	}

	var fields struct {
		Price  string `json:"price"`
		Rating string `json:"rating"`
		Size   string `json:"size"`
	}
	err := m.session.ExtractJSON(taskCtx, `
		(function() {
			var price = document.querySelector('.a-price .a-offscreen');
			var rating = document.querySelector('#acrPopover .a-icon-alt, span[data-hook="rating-out-of-text"]');
			var size = '';
			document.querySelectorAll('#productOverview_feature_div tr').forEach(function(tr) {
				if (/screen size/i.test(tr.innerText)) {
					var td = tr.querySelector('td.a-span9');
					if (td) size = td.innerText.trim();
				}
			});
			return {
				price: price ? price.innerText.trim() : '',
				rating: rating ? rating.innerText.trim() : '',
				size: size
			};
		})()
	`, &fields)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"price":  fields.Price,
		"rating": fields.Rating,
		"size":   fields.Size,
	}, nil
}

// RenderComparisonTable formats monitor results as a fixed-width table.
func RenderComparisonTable(results []browser.Result) string {
	var sb strings.Builder
	sb.WriteString("\nMonitor Comparison:\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-30s %-10s %-10s %-10s\n", "Model", "Price", "Rating", "Size"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, r := range results {
		name := r.Name
		if len(name) > 28 {
			name = name[:28]
		}
		sb.WriteString(fmt.Sprintf("%-30s %-10s %-10s %-10s\n",
			name, r.Field("price"), r.Field("rating"), r.Field("size")))
	}
	return sb.String()
}
