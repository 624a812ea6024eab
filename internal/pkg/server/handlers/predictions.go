package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// GenerateFunc generates and stores fresh predictions for a lottery.
type GenerateFunc func(ctx context.Context, lotteryID int64) ([]models.Prediction, error)

var generateFunc GenerateFunc

func SetGenerateFunc(fn GenerateFunc) {
	generateFunc = fn
}

// HandlePredictions serves stored predictions and generates new ones.
// GET  /predictions?lottery=X - list current predictions
// POST /predictions?lottery=X - generate and store a new set
func HandlePredictions(w http.ResponseWriter, r *http.Request) {
	id, ok := lotteryIDFromQuery(r.Context(), w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		preds, err := store.GetPredictions(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if preds == nil {
			preds = []models.Prediction{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"predictions": preds,
			"count":       len(preds),
		})

	case http.MethodPost:
		if generateFunc == nil {
			writeError(w, http.StatusInternalServerError, "prediction generator not configured")
			return
		}
		preds, err := generateFunc(r.Context(), id)
		if errors.Is(err, storage.ErrNoHistory) {
			writeError(w, http.StatusConflict, "no historical data available for predictions")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"predictions": preds,
			"count":       len(preds),
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
