package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// store is the shared storage client used by the read endpoints.
// Injected once at startup, before the server starts serving.
var store storage.Storage

func SetStorage(s storage.Storage) {
	store = s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// lotteryIDFromQuery resolves the required ?lottery= name parameter to a
// stored lottery id. Writes the error response itself on failure.
func lotteryIDFromQuery(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	name := r.URL.Query().Get("lottery")
	if name == "" {
		writeError(w, http.StatusBadRequest, "lottery parameter is required")
		return 0, false
	}
	if store == nil {
		writeError(w, http.StatusInternalServerError, "storage not configured")
		return 0, false
	}
	id, err := store.GetLotteryID(ctx, name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return 0, false
	}
	return id, true
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
