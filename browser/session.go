// Package browser manages headless Chrome sessions for the research
// demos: navigating sites, extracting text and structured data, and
// capturing screenshots into per-run output directories.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// Session manages a headless Chrome instance for web automation.
type Session struct {
	profileDir string
	headless   bool
	logger     *slog.Logger
}

// SessionConfig holds configuration for a browser session.
type SessionConfig struct {
	ProfileDir string // Chrome user data directory (persists cookies/sessions)
	Headless   bool   // Run headless (true) or with visible UI (false)
	Logger     *slog.Logger
}

// NewSession creates a session. An empty profile dir gets a per-user
// default under the home directory.
func NewSession(cfg SessionConfig) *Session {
	if cfg.ProfileDir == "" {
		home, _ := os.UserHomeDir()
		cfg.ProfileDir = filepath.Join(home, ".agentware", "chrome-profiles", "default")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		profileDir: cfg.ProfileDir,
		headless:   cfg.Headless,
		logger:     cfg.Logger,
	}
}

// newProfileDir creates a fresh user data directory for one Chrome
// launch. Chrome holds a singleton lock per profile, so concurrent
// launches sharing a dir fail to start; each launch gets its own
// subdirectory under the session's profile dir.
func (s *Session) newProfileDir() string {
	dir := filepath.Join(s.profileDir, uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create profile dir", "dir", dir, "err", err)
	}
	return dir
}

// NewContext creates a chromedp context backed by a fresh profile
// directory under the session's profile dir. The caller MUST call
// cancel() when done.
func (s *Session) NewContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(s.newProfileDir()),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.UserAgent("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
	)

	if s.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancelAll := func() {
		taskCancel()
		allocCancel()
	}

	return taskCtx, cancelAll
}

// Navigate opens a URL and waits for the page body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// SearchFor fills the search box matched by inputSel with the query and
// submits it, then waits for the page to settle.
func (s *Session) SearchFor(ctx context.Context, inputSel, query string) error {
	err := chromedp.Run(ctx,
		chromedp.WaitVisible(inputSel, chromedp.ByQuery),
		chromedp.Click(inputSel, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.SendKeys(inputSel, query+"\n", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("search for %q: %w", query, err)
	}
	return nil
}

// Click clicks the first element matched by the CSS selector.
func (s *Session) Click(ctx context.Context, sel string) error {
	err := chromedp.Run(ctx,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.Click(sel, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

// ExtractText returns the visible text of every element matched by the
// CSS selector, in document order.
func (s *Session) ExtractText(ctx context.Context, sel string) ([]string, error) {
	var texts []string
	err := chromedp.Run(ctx,
		chromedp.Evaluate(fmt.Sprintf(`
			Array.from(document.querySelectorAll(%q)).map(function(el) {
				return (el.innerText || el.textContent || '').trim();
			}).filter(function(t) { return t.length > 0; })
		`, sel), &texts),
	)
	if err != nil {
		return nil, fmt.Errorf("extract text %s: %w", sel, err)
	}
	return texts, nil
}

// ExtractJSON evaluates a JavaScript expression on the page and decodes
// its result into out. The expression must produce a JSON-serializable
// value.
func (s *Session) ExtractJSON(ctx context.Context, expr string, out interface{}) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// Screenshot captures the full page as PNG and writes it to path,
// creating parent directories as needed.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	s.logger.Debug("screenshot saved", "path", path)
	return nil
}
