package handlers

import (
	"net/http"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// HandleResults returns a lottery's stored draw results.
// GET /results?lottery=X&limit=N
func HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := lotteryIDFromQuery(r.Context(), w, r)
	if !ok {
		return
	}

	results, err := store.GetResults(r.Context(), id, intQuery(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.LotteryResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// HandleLogs returns the latest scraping log entries, newest first.
// GET /logs?limit=N
func HandleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if store == nil {
		writeError(w, http.StatusInternalServerError, "storage not configured")
		return
	}

	logs, err := store.GetRecentLogs(r.Context(), intQuery(r, "limit", 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []models.ScrapingLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}
