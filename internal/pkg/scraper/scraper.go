// Package scraper orchestrates the scraping pipeline: for each source,
// fetch the page, extract result blocks, normalize them and persist.
// Sources run strictly sequentially over one shared browser session to
// keep resource usage bounded and to stay polite toward the operator
// sites. A failure anywhere in one source's pipeline is converted into a
// scraping log entry and the run moves on to the next source.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/extract"
	"github.com/dajimenez/loteriasrd/internal/pkg/fetch"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/sources"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// ErrRunInProgress is returned when a run is requested while another is
// still executing. Overlapping runs would share the browser session and
// race on the replace semantics, so they are refused instead.
var ErrRunInProgress = errors.New("scraping run already in progress")

// FetchSession is one acquired browser session, released after the run.
type FetchSession interface {
	fetch.Fetcher
	Close()
}

// SessionFactory opens a browser session for one run.
type SessionFactory func(ctx context.Context) (FetchSession, error)

// Scraper runs the full pipeline over the configured sources.
type Scraper struct {
	cfg        config.ScraperConfig
	store      storage.Storage
	srcs       []models.Source
	extractor  *extract.Extractor
	newSession SessionFactory
	now        func() time.Time

	running atomic.Bool
}

// New builds a scraper over the enabled sources. The storage client is
// injected; its lifecycle belongs to the caller.
func New(cfg config.ScraperConfig, store storage.Storage) (*Scraper, error) {
	srcs, err := sources.Filter(cfg.EnabledSources)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:       cfg,
		store:     store,
		srcs:      srcs,
		extractor: extract.New(),
		newSession: func(ctx context.Context) (FetchSession, error) {
			return fetch.NewSession(ctx, cfg)
		},
		now: time.Now,
	}, nil
}

// Sources returns the names the scraper will process, in order.
func (s *Scraper) Sources() []string {
	names := make([]string, len(s.srcs))
	for i, src := range s.srcs {
		names[i] = src.Name
	}
	return names
}

// Busy reports whether a run is currently executing.
func (s *Scraper) Busy() bool {
	return s.running.Load()
}

// RunAll executes one full run over every configured source. Returns
// ErrRunInProgress when another run is still executing.
func (s *Scraper) RunAll(ctx context.Context) (*models.RunReport, error) {
	return s.run(ctx, s.srcs)
}

// RunOne executes the pipeline for a single source by name.
func (s *Scraper) RunOne(ctx context.Context, sourceName string) (*models.RunReport, error) {
	src, err := sources.ByName(sourceName)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, []models.Source{src})
}

func (s *Scraper) run(ctx context.Context, srcs []models.Source) (*models.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	started := s.now()
	report := &models.RunReport{StartedAt: started}

	session, err := s.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer session.Close()

	slog.Info("Starting scraping run", "sources", len(srcs))
	for _, src := range srcs {
		sr := s.processSource(ctx, session, src)
		report.Sources = append(report.Sources, sr)
		switch sr.Status {
		case models.StatusSuccess:
			report.Succeeded++
		case models.StatusWarning:
			report.Warned++
		case models.StatusError:
			report.Errored++
		}
		if ctx.Err() != nil {
			break
		}
	}

	report.Duration = s.now().Sub(started)
	report.DurationText = report.Duration.String()
	slog.Info("Scraping run finished",
		"succeeded", report.Succeeded, "warned", report.Warned,
		"errored", report.Errored, "duration", report.Duration)
	return report, nil
}

// processSource runs fetch → extract → normalize → persist for one
// source, converting any failure into the source's report and log entry.
func (s *Scraper) processSource(ctx context.Context, session FetchSession, src models.Source) models.SourceReport {
	started := s.now()
	sr := models.SourceReport{Source: src.Name, Stage: models.StagePending, Status: models.StatusRunning}
	finish := func() models.SourceReport {
		sr.Duration = s.now().Sub(started)
		sr.DurationText = sr.Duration.String()
		return sr
	}

	slog.Info("Scraping source", "source", src.Name, "url", src.BaseURL)

	sr.Stage = models.StageFetching
	html, err := session.Fetch(ctx, src)
	if err != nil {
		s.failSource(ctx, &sr, src, fmt.Errorf("fetch: %w", err))
		return finish()
	}

	sr.Stage = models.StageExtracting
	blocks, err := s.extractor.Parse(html)
	if err != nil {
		s.failSource(ctx, &sr, src, fmt.Errorf("extract: %w", err))
		return finish()
	}
	sr.BlocksFound = len(blocks)
	slog.Info("Extracted result blocks", "source", src.Name, "blocks", len(blocks))

	if len(blocks) == 0 {
		// May be a day with no draws yet rather than a failure. Prior
		// rows are left untouched.
		sr.Stage = models.StageCompleted
		sr.Status = models.StatusWarning
		s.logSource(ctx, src, models.StatusWarning,
			fmt.Sprintf("No results found for %s", src.Name), &sr)
		return finish()
	}

	sr.Stage = models.StagePersisting
	lotteryID, err := s.store.GetLotteryID(ctx, src.Name)
	if err != nil {
		s.failSource(ctx, &sr, src, fmt.Errorf("persist: %w", err))
		return finish()
	}

	rows, stats := buildRows(src, blocks, s.now())
	sr.ShortBlocks = stats.ShortBlocks
	sr.UnmappedLabels = stats.UnmappedLabels

	stored, failed, err := s.store.ReplaceResults(ctx, lotteryID, rows)
	sr.Stored, sr.Failed = stored, failed
	if err != nil {
		s.failSource(ctx, &sr, src, fmt.Errorf("persist: %w", err))
		return finish()
	}

	sr.Stage = models.StageCompleted
	if stored > 0 {
		sr.Status = models.StatusSuccess
		s.logSource(ctx, src, models.StatusSuccess,
			fmt.Sprintf("Successfully scraped %d results for %s", stored, src.Name), &sr)
	} else {
		sr.Status = models.StatusWarning
		s.logSource(ctx, src, models.StatusWarning,
			fmt.Sprintf("No results stored for %s", src.Name), &sr)
	}
	return finish()
}

func (s *Scraper) failSource(ctx context.Context, sr *models.SourceReport, src models.Source, err error) {
	sr.Stage = models.StageError
	sr.Status = models.StatusError
	sr.Error = err.Error()
	slog.Error("Source scraping failed", "source", src.Name, "error", err)
	s.logSource(ctx, src, models.StatusError,
		fmt.Sprintf("Error scraping %s: %v", src.Name, err), sr)
}

// logSource writes the source's audit-trail entry. Log failures only
// log; they never affect the run.
func (s *Scraper) logSource(ctx context.Context, src models.Source, status models.ScrapeStatus, message string, sr *models.SourceReport) {
	lotteryID, err := s.store.GetLotteryID(ctx, src.Name)
	if err != nil {
		slog.Error("Cannot write scraping log: lottery lookup failed",
			"source", src.Name, "error", err)
		return
	}

	details := map[string]any{
		"stage":        string(sr.Stage),
		"blocks_found": sr.BlocksFound,
		"stored":       sr.Stored,
		"failed":       sr.Failed,
	}
	if sr.ShortBlocks > 0 {
		details["short_blocks"] = sr.ShortBlocks
	}
	if len(sr.UnmappedLabels) > 0 {
		details["unmapped_labels"] = sr.UnmappedLabels
	}
	if sr.Error != "" {
		details["error"] = sr.Error
	}
	raw, _ := json.Marshal(details)

	entry := models.ScrapingLog{
		LotteryID: lotteryID,
		Status:    status,
		Message:   message,
		Details:   raw,
	}
	if err := s.store.InsertScrapingLog(ctx, entry); err != nil {
		slog.Error("Failed to write scraping log", "source", src.Name, "error", err)
	}
}

// RunPeriodic runs the pipeline immediately and then on every interval
// tick until the context is cancelled. A tick that finds a run still in
// progress is skipped, not queued. onReport may be nil.
func (s *Scraper) RunPeriodic(ctx context.Context, interval time.Duration, onReport func(*models.RunReport)) {
	runOnce := func() {
		report, err := s.RunAll(ctx)
		if errors.Is(err, ErrRunInProgress) {
			slog.Warn("Skipping scheduled scraping: previous run still in progress")
			return
		}
		if err != nil {
			slog.Error("Scheduled scraping failed", "error", err)
			return
		}
		if onReport != nil {
			onReport(report)
		}
	}

	slog.Info("Starting periodic scraping", "interval", interval)
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping periodic scraping")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
