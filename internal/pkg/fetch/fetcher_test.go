package fetch

import (
	"context"
	"os"
	"testing"

	"github.com/chromedp/chromedp"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
)

// Sessions are created lazily: no browser process starts until the
// first navigation, so the session lifecycle is testable without
// Chrome installed.
func TestNewSessionSharedBrowserContext(t *testing.T) {
	s, err := NewSession(context.Background(), config.ScraperConfig{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer s.Close()

	if s.browserCtx == nil {
		t.Fatal("session has no browser context")
	}
	// The browser context is chromedp-managed, so per-source tabs
	// derived from it attach to the one shared browser.
	if chromedp.FromContext(s.browserCtx) == nil {
		t.Error("browser context is not a chromedp context")
	}

	if s.userDir == "" {
		t.Fatal("session has no user data dir")
	}
	if _, err := os.Stat(s.userDir); err != nil {
		t.Errorf("user data dir not created: %v", err)
	}
}

func TestSessionCloseRemovesUserDir(t *testing.T) {
	s, err := NewSession(context.Background(), config.ScraperConfig{})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	dir := s.userDir
	s.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("user data dir still exists after Close: %v", err)
	}
}
