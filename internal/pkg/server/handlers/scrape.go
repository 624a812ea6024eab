package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/scraper"
)

// ScrapeFunc runs the pipeline: all sources when lottery is empty, one
// source otherwise.
type ScrapeFunc func(ctx context.Context, lottery string) (*models.RunReport, error)

var (
	scrapeFunc    ScrapeFunc
	scrapeTimeout = 10 * time.Minute
)

func SetScrapeFunc(fn ScrapeFunc, timeout time.Duration) {
	scrapeFunc = fn
	if timeout > 0 {
		scrapeTimeout = timeout
	}
}

// HandleScrape synchronously runs the scraping pipeline.
// GET /scrape           - scrape all sources
// GET /scrape?lottery=X - scrape a single source
func HandleScrape(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if scrapeFunc == nil {
		writeError(w, http.StatusInternalServerError, "scraper not configured")
		return
	}

	lottery := r.URL.Query().Get("lottery")
	ctx, cancel := context.WithTimeout(r.Context(), scrapeTimeout)
	defer cancel()

	started := time.Now()
	slog.Info("Manual scrape triggered", "lottery", lottery)

	report, err := scrapeFunc(ctx, lottery)
	if errors.Is(err, scraper.ErrRunInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("Manual scrape failed", "lottery", lottery, "error", err, "took", time.Since(started))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	slog.Info("Manual scrape completed",
		"lottery", lottery, "succeeded", report.Succeeded,
		"warned", report.Warned, "errored", report.Errored, "took", time.Since(started))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": report.Success(),
		"report":  report,
	})
}
