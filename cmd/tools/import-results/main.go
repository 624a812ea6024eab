// import-results backfills lottery_results from a JSON export produced
// by earlier scraping runs. Rows are upserted on the natural key, so
// importing the same file twice is safe.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/gametype"
	"github.com/dajimenez/loteriasrd/internal/pkg/logging"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/sources"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// exportRecord is one entry of the JSON export file.
type exportRecord struct {
	Source   string   `json:"source"`    // Source name or slug
	Date     string   `json:"date"`      // DD-MM
	GameType string   `json:"game_type"` // Raw label as scraped
	Numbers  []string `json:"numbers"`
}

func main() {
	configPath := flag.String("config", "configs/production.yaml", "Path to config file")
	filePath := flag.String("file", "lottery_results.json", "Path to the JSON export to import")
	flag.Parse()

	if err := run(*configPath, *filePath); err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, filePath string) error {
	appConfig, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := logging.SetupLogger(&appConfig.Logging, "import-results"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	var records []exportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	slog.Info("Importing results", "file", filePath, "records", len(records))

	store, err := storage.NewPostgresStorage(&appConfig.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SeedLotteries(ctx, sources.All()); err != nil {
		return fmt.Errorf("failed to seed lotteries: %w", err)
	}

	year := time.Now().Year()
	imported, skipped := 0, 0
	for _, rec := range records {
		row, lotteryID, err := convertRecord(ctx, store, rec, year)
		if err != nil {
			slog.Warn("Skipping record", "source", rec.Source, "game", rec.GameType, "error", err)
			skipped++
			continue
		}
		if err := store.UpsertResult(ctx, lotteryID, row); err != nil {
			slog.Error("Failed to import record", "source", rec.Source, "game", rec.GameType, "error", err)
			skipped++
			continue
		}
		imported++
	}

	slog.Info("Import completed", "imported", imported, "skipped", skipped)
	return nil
}

func convertRecord(ctx context.Context, store storage.Storage, rec exportRecord, year int) (models.LotteryResult, int64, error) {
	src, err := sources.ByName(rec.Source)
	if err != nil {
		return models.LotteryResult{}, 0, err
	}
	lotteryID, err := store.GetLotteryID(ctx, src.Name)
	if err != nil {
		return models.LotteryResult{}, 0, err
	}

	drawDate, err := completeDate(rec.Date, year)
	if err != nil {
		return models.LotteryResult{}, 0, err
	}

	nums := make([]int64, 0, len(rec.Numbers))
	for _, tok := range rec.Numbers {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}

	gt, _ := gametype.Normalize(rec.GameType, len(nums))
	nums = gametype.ClampNumbers(gt, nums)

	return models.LotteryResult{
		DrawDate:    drawDate,
		DrawTime:    "00:00",
		Numbers:     nums,
		Subtitle:    rec.GameType,
		GameType:    gt,
		ResultOrder: 1,
	}, lotteryID, nil
}

// completeDate turns a DD-MM export date into YYYY-MM-DD using the
// current year, matching the scraper's date reconstruction.
func completeDate(ddmm string, year int) (string, error) {
	t, err := time.Parse("02-01", ddmm)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", ddmm, err)
	}
	return fmt.Sprintf("%d-%02d-%02d", year, t.Month(), t.Day()), nil
}
