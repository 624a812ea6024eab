// Package fetch loads operator results pages in a headless browser. The
// pages populate their result blocks client-side, so a plain GET is not
// enough: navigation is followed by a wait for the results markup and a
// fixed settle interval before the DOM is captured.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// ErrNavigation marks a page that stayed unreachable after exhausting
// navigation retries, or whose result blocks never materialized.
var ErrNavigation = errors.New("page navigation failed")

// resultSelector matches the result-block containers across all five
// operator pages on the aggregator site.
const resultSelector = ".game-block, .game-scores"

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Fetcher retrieves a fully rendered results page for a source.
type Fetcher interface {
	Fetch(ctx context.Context, source models.Source) (string, error)
}

// Session is one shared headless Chrome instance, acquired once per run
// and closed unconditionally when the run ends. Each Fetch opens a tab
// in that instance rather than a fresh browser.
type Session struct {
	cfg        config.ScraperConfig
	browserCtx context.Context
	cancels    []context.CancelFunc
	userDir    string
}

var _ Fetcher = (*Session)(nil)

// NewSession starts a browser allocator. Callers must Close it.
func NewSession(ctx context.Context, cfg config.ScraperConfig) (*Session, error) {
	userDir, err := os.MkdirTemp("", "loteriasrd_chrome_")
	if err != nil {
		return nil, fmt.Errorf("create chrome temp dir: %w", err)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserDataDir(userDir),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &Session{
		cfg:        cfg,
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelAlloc, cancelBrowser},
		userDir:    userDir,
	}, nil
}

// Close shuts the browser down and removes its temp profile.
func (s *Session) Close() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	if s.userDir != "" {
		_ = os.RemoveAll(s.userDir)
	}
}

// Fetch navigates to the source's page, waits for result blocks to be
// attached and for client-side rendering to settle, and returns the
// page's outer HTML. Navigation is retried; a page that never renders
// its blocks fails with ErrNavigation.
func (s *Session) Fetch(ctx context.Context, source models.Source) (string, error) {
	// Derived from the session's browser context: a new tab in the
	// already running browser, not a second browser process.
	tabCtx, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()

	if err := s.navigateWithRetry(ctx, tabCtx, source); err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(tabCtx, s.cfg.SelectorWait)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(resultSelector, chromedp.ByQuery))
	cancel()
	if err != nil {
		return "", fmt.Errorf("%w: waiting for result blocks on %s: %v", ErrNavigation, source.BaseURL, err)
	}

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Sleep(s.cfg.SettleWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%w: capturing page content for %s: %v", ErrNavigation, source.Name, err)
	}

	s.dumpDebugHTML(source, html)
	return html, nil
}

func (s *Session) navigateWithRetry(ctx, tabCtx context.Context, source models.Source) error {
	retries := s.cfg.NavRetries
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		navCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
		err := chromedp.Run(navCtx, chromedp.Navigate(source.BaseURL))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("Navigation attempt failed",
			"source", source.Name, "url", source.BaseURL,
			"attempt", attempt, "retries_left", retries-attempt, "error", err)
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNavigation, ctx.Err())
		case <-time.After(s.cfg.RetryWait):
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrNavigation, source.BaseURL, retries, lastErr)
}

// dumpDebugHTML writes the fetched page for offline inspection. Failures
// only log: the dump has no consumer in the pipeline.
func (s *Session) dumpDebugHTML(source models.Source, html string) {
	if s.cfg.DebugHTMLDir == "" {
		return
	}
	name := strings.ToLower(source.Name)
	name = strings.ReplaceAll(name, " ", "_")
	path := filepath.Join(s.cfg.DebugHTMLDir, name+"_page.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		slog.Warn("Failed to save debug HTML", "source", source.Name, "path", path, "error", err)
		return
	}
	slog.Debug("Saved debug HTML", "source", source.Name, "path", path, "bytes", len(html))
}
