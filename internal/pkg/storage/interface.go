package storage

import (
	"context"
	"errors"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// ErrUnknownLottery is returned when a source name has no lotteries row.
var ErrUnknownLottery = errors.New("unknown lottery")

// ErrNoHistory is returned when a lottery has no stored results to work
// with (statistics, predictions).
var ErrNoHistory = errors.New("no historical results")

// Storage persists and serves lottery draw data. One implementation per
// backing store; handlers and the orchestrator only see this interface.
type Storage interface {
	// GetLotteryID resolves a lottery name to its stored identifier.
	// Returns ErrUnknownLottery when no row matches.
	GetLotteryID(ctx context.Context, name string) (int64, error)

	// SeedLotteries ensures a lotteries row exists for every source.
	SeedLotteries(ctx context.Context, sources []models.Source) error

	// ReplaceResults deletes the lottery's previous rows and upserts the
	// given ones, one insert per row so a single constraint violation is
	// counted without blocking sibling rows. Callers must not pass an
	// empty slice: a transient zero-result fetch must not wipe history.
	ReplaceResults(ctx context.Context, lotteryID int64, rows []models.LotteryResult) (stored, failed int, err error)

	// UpsertResult inserts or updates one row on the natural key without
	// touching the lottery's other rows. Used for backfills.
	UpsertResult(ctx context.Context, lotteryID int64, row models.LotteryResult) error

	// InsertScrapingLog appends one audit-trail entry.
	InsertScrapingLog(ctx context.Context, entry models.ScrapingLog) error

	// GetRecentLogs returns the newest log entries, newest first.
	GetRecentLogs(ctx context.Context, limit int) ([]models.ScrapingLog, error)

	// GetResults returns a lottery's stored rows in result order.
	GetResults(ctx context.Context, lotteryID int64, limit int) ([]models.LotteryResult, error)

	// GetNumberFrequency aggregates number occurrences over the last
	// periodDays days into a full 0-99 frequency vector.
	GetNumberFrequency(ctx context.Context, lotteryID int64, periodDays int) (*models.LotteryStats, error)

	// GetRecentNumbers returns the number sets of the lottery's most
	// recent draws, newest first.
	GetRecentNumbers(ctx context.Context, lotteryID int64, limit int) ([][]int64, error)

	// StorePrediction persists one generated prediction.
	StorePrediction(ctx context.Context, p *models.Prediction) error

	// GetPredictions returns the lottery's predictions for today and
	// later, highest confidence first.
	GetPredictions(ctx context.Context, lotteryID int64) ([]models.Prediction, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
