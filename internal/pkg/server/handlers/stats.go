package handlers

import (
	"net/http"
)

// HandleStats returns the number-frequency aggregation for charts.
// GET /stats?lottery=X&period=30
func HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := lotteryIDFromQuery(r.Context(), w, r)
	if !ok {
		return
	}

	stats, err := store.GetNumberFrequency(r.Context(), id, intQuery(r, "period", 30))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
