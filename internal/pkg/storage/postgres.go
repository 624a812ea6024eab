package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// Ensure PostgresStorage implements Storage
var _ Storage = (*PostgresStorage)(nil)

// PostgresStorage persists lotteries, draw results, scraping logs and
// predictions in PostgreSQL.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage opens the connection, pings it and ensures the
// schema exists.
func NewPostgresStorage(cfg *config.PostgresConfig) (*PostgresStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL storage initialized successfully")
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS lotteries (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		slug VARCHAR(100) NOT NULL DEFAULT '',
		website VARCHAR(500) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS lottery_results (
		id SERIAL PRIMARY KEY,
		lottery_id INTEGER NOT NULL REFERENCES lotteries(id),
		draw_date DATE NOT NULL,
		draw_time VARCHAR(10) NOT NULL DEFAULT '00:00',
		numbers INTEGER[] NOT NULL,
		subtitle VARCHAR(200) NOT NULL DEFAULT '',
		game_type VARCHAR(50) NOT NULL,
		result_order INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(lottery_id, draw_date, draw_time, game_type, result_order)
	);

	CREATE INDEX IF NOT EXISTS idx_lottery_results_lottery_date ON lottery_results(lottery_id, draw_date);

	CREATE TABLE IF NOT EXISTS scraping_logs (
		id SERIAL PRIMARY KEY,
		lottery_id INTEGER NOT NULL REFERENCES lotteries(id),
		status VARCHAR(20) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		details JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_scraping_logs_created_at ON scraping_logs(created_at DESC);

	CREATE TABLE IF NOT EXISTS predictions (
		id SERIAL PRIMARY KEY,
		lottery_id INTEGER NOT NULL REFERENCES lotteries(id),
		numbers INTEGER[] NOT NULL,
		confidence INTEGER NOT NULL DEFAULT 0,
		method VARCHAR(50) NOT NULL DEFAULT '',
		predicted_for_date DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresStorage) GetLotteryID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM lotteries WHERE name = $1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", ErrUnknownLottery, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up lottery %s: %w", name, err)
	}
	return id, nil
}

func (s *PostgresStorage) SeedLotteries(ctx context.Context, sources []models.Source) error {
	query := `
	INSERT INTO lotteries (name, slug, website)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET
		slug = EXCLUDED.slug,
		website = EXCLUDED.website
	`
	for _, src := range sources {
		if _, err := s.db.ExecContext(ctx, query, src.Name, src.Slug, src.BaseURL); err != nil {
			return fmt.Errorf("failed to seed lottery %s: %w", src.Name, err)
		}
	}
	return nil
}

// ReplaceResults clears the lottery's rows and upserts the new ones.
// Row failures are counted individually so one bad row does not block
// the rest.
func (s *PostgresStorage) ReplaceResults(ctx context.Context, lotteryID int64, rows []models.LotteryResult) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("refusing to replace results for lottery %d with an empty set", lotteryID)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM lottery_results WHERE lottery_id = $1`, lotteryID); err != nil {
		return 0, 0, fmt.Errorf("failed to delete previous results for lottery %d: %w", lotteryID, err)
	}

	query := `
	INSERT INTO lottery_results (
		lottery_id, draw_date, draw_time, numbers, subtitle, game_type, result_order
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (lottery_id, draw_date, draw_time, game_type, result_order) DO UPDATE SET
		numbers = EXCLUDED.numbers,
		subtitle = EXCLUDED.subtitle
	`

	stored, failed := 0, 0
	for _, row := range rows {
		_, err := s.db.ExecContext(ctx, query,
			lotteryID, row.DrawDate, row.DrawTime, pq.Array(row.Numbers),
			row.Subtitle, string(row.GameType), row.ResultOrder,
		)
		if err != nil {
			failed++
			slog.Error("Failed to store result row",
				"lottery_id", lotteryID, "game_type", row.GameType,
				"draw_date", row.DrawDate, "result_order", row.ResultOrder, "error", err)
			continue
		}
		stored++
	}
	return stored, failed, nil
}

// UpsertResult writes one row on the natural key, leaving the lottery's
// other rows alone.
func (s *PostgresStorage) UpsertResult(ctx context.Context, lotteryID int64, row models.LotteryResult) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO lottery_results (
		lottery_id, draw_date, draw_time, numbers, subtitle, game_type, result_order
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (lottery_id, draw_date, draw_time, game_type, result_order) DO UPDATE SET
		numbers = EXCLUDED.numbers,
		subtitle = EXCLUDED.subtitle
	`, lotteryID, row.DrawDate, row.DrawTime, pq.Array(row.Numbers),
		row.Subtitle, string(row.GameType), row.ResultOrder)
	if err != nil {
		return fmt.Errorf("failed to upsert result for lottery %d: %w", lotteryID, err)
	}
	return nil
}

func (s *PostgresStorage) InsertScrapingLog(ctx context.Context, entry models.ScrapingLog) error {
	details := entry.Details
	if len(details) == 0 {
		details = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO scraping_logs (lottery_id, status, message, details)
	VALUES ($1, $2, $3, $4)
	`, entry.LotteryID, string(entry.Status), entry.Message, []byte(details))
	if err != nil {
		return fmt.Errorf("failed to insert scraping log: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetRecentLogs(ctx context.Context, limit int) ([]models.ScrapingLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, lottery_id, status, message, COALESCE(details, '{}'), created_at
	FROM scraping_logs
	ORDER BY created_at DESC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scraping logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ScrapingLog
	for rows.Next() {
		var entry models.ScrapingLog
		var status string
		if err := rows.Scan(&entry.ID, &entry.LotteryID, &status, &entry.Message, (*[]byte)(&entry.Details), &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scraping log: %w", err)
		}
		entry.Status = models.ScrapeStatus(status)
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *PostgresStorage) GetResults(ctx context.Context, lotteryID int64, limit int) ([]models.LotteryResult, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT r.id, r.lottery_id, l.name, r.draw_date::text, r.draw_time, r.numbers,
	       r.subtitle, r.game_type, r.result_order, r.created_at
	FROM lottery_results r
	JOIN lotteries l ON l.id = r.lottery_id
	WHERE r.lottery_id = $1
	ORDER BY r.draw_date DESC, r.result_order ASC
	LIMIT $2
	`, lotteryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.LotteryResult
	for rows.Next() {
		var r models.LotteryResult
		var gameType string
		if err := rows.Scan(&r.ID, &r.LotteryID, &r.LotteryName, &r.DrawDate, &r.DrawTime,
			pq.Array(&r.Numbers), &r.Subtitle, &gameType, &r.ResultOrder, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		r.GameType = models.GameType(gameType)
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetNumberFrequency aggregates occurrences per number over the period.
// All numbers 0-99 are represented so charts get a dense vector.
func (s *PostgresStorage) GetNumberFrequency(ctx context.Context, lotteryID int64, periodDays int) (*models.LotteryStats, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT numbers, draw_date::text
	FROM lottery_results
	WHERE lottery_id = $1 AND draw_date >= CURRENT_DATE - $2::integer
	ORDER BY draw_date DESC, draw_time DESC
	`, lotteryID, periodDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	stats := &models.LotteryStats{LotteryID: lotteryID}
	for rows.Next() {
		var nums []int64
		var drawDate string
		if err := rows.Scan(pq.Array(&nums), &drawDate); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		if stats.LastDrawDate == "" {
			stats.LastDrawDate = drawDate
		}
		stats.TotalDraws++
		for _, n := range nums {
			counts[n]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.Frequency = make([]models.NumberFrequency, 100)
	for i := 0; i < 100; i++ {
		stats.Frequency[i] = models.NumberFrequency{Number: i, Frequency: counts[int64(i)]}
	}
	return stats, nil
}

func (s *PostgresStorage) GetRecentNumbers(ctx context.Context, lotteryID int64, limit int) ([][]int64, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT numbers FROM lottery_results
	WHERE lottery_id = $1
	ORDER BY draw_date DESC, result_order ASC
	LIMIT $2
	`, lotteryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent numbers: %w", err)
	}
	defer rows.Close()

	var sets [][]int64
	for rows.Next() {
		var nums []int64
		if err := rows.Scan(pq.Array(&nums)); err != nil {
			return nil, fmt.Errorf("failed to scan numbers: %w", err)
		}
		sets = append(sets, nums)
	}
	return sets, rows.Err()
}

func (s *PostgresStorage) StorePrediction(ctx context.Context, p *models.Prediction) error {
	err := s.db.QueryRowContext(ctx, `
	INSERT INTO predictions (lottery_id, numbers, confidence, method, predicted_for_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
	`, p.LotteryID, pq.Array(p.Numbers), p.Confidence, p.Method, p.PredictedForDate).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store prediction: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetPredictions(ctx context.Context, lotteryID int64) ([]models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, lottery_id, numbers, confidence, method, predicted_for_date::text, created_at
	FROM predictions
	WHERE lottery_id = $1 AND predicted_for_date >= CURRENT_DATE
	ORDER BY confidence DESC
	`, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var preds []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.LotteryID, pq.Array(&p.Numbers), &p.Confidence,
			&p.Method, &p.PredictedForDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
