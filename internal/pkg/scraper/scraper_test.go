package scraper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// fakeStore is an in-memory Storage for orchestrator tests.
type fakeStore struct {
	mu         sync.Mutex
	lotteryIDs map[string]int64
	results    map[int64][]models.LotteryResult
	logs       []models.ScrapingLog

	replaceCalls int
	failInserts  int // Fail the first N row inserts of each ReplaceResults call
}

func newFakeStore(names ...string) *fakeStore {
	ids := make(map[string]int64)
	for i, n := range names {
		ids[n] = int64(i + 1)
	}
	return &fakeStore{
		lotteryIDs: ids,
		results:    make(map[int64][]models.LotteryResult),
	}
}

func (f *fakeStore) GetLotteryID(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.lotteryIDs[name]
	if !ok {
		return 0, storage.ErrUnknownLottery
	}
	return id, nil
}

func (f *fakeStore) SeedLotteries(ctx context.Context, sources []models.Source) error { return nil }

func (f *fakeStore) ReplaceResults(ctx context.Context, lotteryID int64, rows []models.LotteryResult) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	f.results[lotteryID] = nil
	stored, failed := 0, 0
	for i, row := range rows {
		if i < f.failInserts {
			failed++
			continue
		}
		row.LotteryID = lotteryID
		f.results[lotteryID] = append(f.results[lotteryID], row)
		stored++
	}
	return stored, failed, nil
}

func (f *fakeStore) UpsertResult(ctx context.Context, lotteryID int64, row models.LotteryResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row.LotteryID = lotteryID
	f.results[lotteryID] = append(f.results[lotteryID], row)
	return nil
}

func (f *fakeStore) InsertScrapingLog(ctx context.Context, entry models.ScrapingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeStore) GetRecentLogs(ctx context.Context, limit int) ([]models.ScrapingLog, error) {
	return f.logs, nil
}

func (f *fakeStore) GetResults(ctx context.Context, lotteryID int64, limit int) ([]models.LotteryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results[lotteryID], nil
}

func (f *fakeStore) GetNumberFrequency(ctx context.Context, lotteryID int64, periodDays int) (*models.LotteryStats, error) {
	return &models.LotteryStats{LotteryID: lotteryID}, nil
}

func (f *fakeStore) GetRecentNumbers(ctx context.Context, lotteryID int64, limit int) ([][]int64, error) {
	return nil, nil
}

func (f *fakeStore) StorePrediction(ctx context.Context, p *models.Prediction) error { return nil }

func (f *fakeStore) GetPredictions(ctx context.Context, lotteryID int64) ([]models.Prediction, error) {
	return nil, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) logsFor(lotteryID int64) []models.ScrapingLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScrapingLog
	for _, l := range f.logs {
		if l.LotteryID == lotteryID {
			out = append(out, l)
		}
	}
	return out
}

// fakeSession serves canned HTML (or errors) per source name.
type fakeSession struct {
	pages  map[string]string
	errors map[string]error
	block  chan struct{} // When set, Fetch blocks until the channel closes
}

func (f *fakeSession) Fetch(ctx context.Context, source models.Source) (string, error) {
	if f.block != nil {
		<-f.block
	}
	if err, ok := f.errors[source.Name]; ok {
		return "", err
	}
	return f.pages[source.Name], nil
}

func (f *fakeSession) Close() {}

func newTestScraper(t *testing.T, store storage.Storage, session FetchSession, enabled ...string) *Scraper {
	t.Helper()
	cfg := config.ScraperConfig{EnabledSources: enabled}
	s, err := New(cfg, store)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.newSession = func(ctx context.Context) (FetchSession, error) { return session, nil }
	s.extractor.Now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	s.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return s
}

const tocaPage = `<html><body>
  <div class="game-block">
    <div class="game-title">Toca 3</div>
    <div class="session-date">04-06</div>
    <span class="score">05</span><span class="score">42</span><span class="score">19</span>
  </div>
</body></html>`

func TestRunAllStoresNormalizedRows(t *testing.T) {
	store := newFakeStore("Loteka")
	session := &fakeSession{pages: map[string]string{"Loteka": tocaPage}}
	s := newTestScraper(t, store, session, "Loteka")

	report, err := s.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if report.Succeeded != 1 || report.Errored != 0 || report.Warned != 0 {
		t.Fatalf("report = %+v, want 1 success", report)
	}

	rows, _ := store.GetResults(context.Background(), 1, 10)
	if len(rows) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(rows))
	}
	row := rows[0]
	if row.GameType != models.GameTypePega3 {
		t.Errorf("game type = %q, want Pega 3", row.GameType)
	}
	if len(row.Numbers) != 3 || row.Numbers[0] != 5 || row.Numbers[1] != 42 || row.Numbers[2] != 19 {
		t.Errorf("numbers = %v, want [5 42 19]", row.Numbers)
	}
	if row.DrawDate != "2025-06-04" {
		t.Errorf("draw date = %q, want 2025-06-04", row.DrawDate)
	}
	if row.ResultOrder != 1 {
		t.Errorf("result order = %d, want 1", row.ResultOrder)
	}

	logs := store.logsFor(1)
	if len(logs) != 1 || logs[0].Status != models.StatusSuccess {
		t.Errorf("logs = %+v, want one success entry", logs)
	}
}

func TestRunAllIsolatesSourceFailures(t *testing.T) {
	store := newFakeStore("Loteka", "Leidsa", "Nacional")
	session := &fakeSession{
		pages: map[string]string{
			"Loteka":   tocaPage,
			"Nacional": tocaPage,
		},
		errors: map[string]error{
			"Leidsa": errors.New("net::ERR_CONNECTION_REFUSED"),
		},
	}
	s := newTestScraper(t, store, session, "Loteka", "Leidsa", "Nacional")

	report, err := s.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if report.Succeeded != 2 || report.Errored != 1 {
		t.Fatalf("report: succeeded=%d errored=%d, want 2/1", report.Succeeded, report.Errored)
	}

	for _, sr := range report.Sources {
		if sr.Source == "Leidsa" {
			if sr.Status != models.StatusError || sr.Stage != models.StageError {
				t.Errorf("Leidsa report = %+v, want error", sr)
			}
		} else if sr.Status != models.StatusSuccess {
			t.Errorf("%s report = %+v, want success", sr.Source, sr)
		}
	}

	// The failed source gets exactly one error log entry and no rows.
	leidsaLogs := store.logsFor(2)
	if len(leidsaLogs) != 1 || leidsaLogs[0].Status != models.StatusError {
		t.Errorf("Leidsa logs = %+v, want one error entry", leidsaLogs)
	}
	if rows, _ := store.GetResults(context.Background(), 2, 10); len(rows) != 0 {
		t.Errorf("Leidsa rows = %d, want 0", len(rows))
	}

	// Siblings stored their rows regardless.
	for _, id := range []int64{1, 3} {
		if rows, _ := store.GetResults(context.Background(), id, 10); len(rows) != 1 {
			t.Errorf("lottery %d rows = %d, want 1", id, len(rows))
		}
	}
}

func TestRunAllZeroBlocksLeavesHistoryIntact(t *testing.T) {
	store := newFakeStore("Loteka")
	store.results[1] = []models.LotteryResult{{LotteryID: 1, GameType: models.GameTypePega3}}
	session := &fakeSession{pages: map[string]string{"Loteka": "<html><body></body></html>"}}
	s := newTestScraper(t, store, session, "Loteka")

	report, err := s.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if report.Warned != 1 || report.Errored != 0 {
		t.Fatalf("report = %+v, want 1 warning", report)
	}

	if store.replaceCalls != 0 {
		t.Errorf("ReplaceResults called %d times for an empty extraction, want 0", store.replaceCalls)
	}
	if rows, _ := store.GetResults(context.Background(), 1, 10); len(rows) != 1 {
		t.Errorf("prior rows = %d, want 1 (history must survive empty fetches)", len(rows))
	}

	logs := store.logsFor(1)
	if len(logs) != 1 || logs[0].Status != models.StatusWarning {
		t.Errorf("logs = %+v, want one warning entry", logs)
	}
}

func TestRunAllUnknownLottery(t *testing.T) {
	// Storage knows no lotteries at all: persistence must fail per
	// source without aborting the run.
	store := newFakeStore()
	session := &fakeSession{pages: map[string]string{"Loteka": tocaPage, "Leidsa": tocaPage}}
	s := newTestScraper(t, store, session, "Loteka", "Leidsa")

	report, err := s.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if report.Errored != 2 {
		t.Fatalf("errored = %d, want 2", report.Errored)
	}
	for _, sr := range report.Sources {
		if !strings.Contains(sr.Error, "unknown lottery") {
			t.Errorf("%s error = %q, want unknown lottery", sr.Source, sr.Error)
		}
	}
}

func TestRunAllRejectsConcurrentRuns(t *testing.T) {
	store := newFakeStore("Loteka")
	block := make(chan struct{})
	session := &fakeSession{
		pages: map[string]string{"Loteka": tocaPage},
		block: block,
	}
	s := newTestScraper(t, store, session, "Loteka")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.RunAll(context.Background()); err != nil {
			t.Errorf("first RunAll failed: %v", err)
		}
	}()

	// Wait for the first run to take the slot.
	deadline := time.After(2 * time.Second)
	for !s.Busy() {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := s.RunAll(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("concurrent RunAll error = %v, want ErrRunInProgress", err)
	}

	close(block)
	<-done

	// The slot is free again after the run.
	if s.Busy() {
		t.Error("scraper still busy after run finished")
	}
}

func TestRunAllCountsRowInsertFailures(t *testing.T) {
	store := newFakeStore("Loteka")
	store.failInserts = 1
	session := &fakeSession{pages: map[string]string{"Loteka": tocaPage}}
	s := newTestScraper(t, store, session, "Loteka")

	report, err := s.RunAll(context.Background())
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	// A row insert failure is counted, not fatal; with every row failed
	// the source downgrades to a warning instead of claiming success.
	if report.Warned != 1 || report.Errored != 0 {
		t.Fatalf("report = %+v, want 1 warning", report)
	}
	sr := report.Sources[0]
	if sr.Stored != 0 || sr.Failed != 1 {
		t.Errorf("stored=%d failed=%d, want 0/1", sr.Stored, sr.Failed)
	}
	if sr.Status != models.StatusWarning {
		t.Errorf("status = %q, want warning", sr.Status)
	}

	logs := store.logsFor(1)
	if len(logs) != 1 || logs[0].Status != models.StatusWarning {
		t.Errorf("logs = %+v, want one warning entry", logs)
	}
}

func TestRunPeriodicSkipsWhileRunInProgress(t *testing.T) {
	store := newFakeStore("Loteka")
	block := make(chan struct{})
	session := &fakeSession{
		pages: map[string]string{"Loteka": tocaPage},
		block: block,
	}
	s := newTestScraper(t, store, session, "Loteka")

	manualDone := make(chan struct{})
	go func() {
		defer close(manualDone)
		if _, err := s.RunAll(context.Background()); err != nil {
			t.Errorf("manual RunAll failed: %v", err)
		}
	}()

	deadline := time.After(2 * time.Second)
	for !s.Busy() {
		select {
		case <-deadline:
			t.Fatal("manual run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// The periodic loop's immediate pass finds the slot taken: it must
	// skip without reporting and keep the loop alive until cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan *models.RunReport, 1)
	periodicDone := make(chan struct{})
	go func() {
		defer close(periodicDone)
		s.RunPeriodic(ctx, time.Hour, func(r *models.RunReport) { reports <- r })
	}()

	cancel()
	select {
	case <-periodicDone:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop on context cancel")
	}
	select {
	case r := <-reports:
		t.Errorf("skipped pass delivered a report: %+v", r)
	default:
	}

	close(block)
	<-manualDone
}

func TestRunOneUnknownSource(t *testing.T) {
	store := newFakeStore("Loteka")
	s := newTestScraper(t, store, &fakeSession{}, "Loteka")

	if _, err := s.RunOne(context.Background(), "Borinquen"); err == nil {
		t.Error("expected error for unknown source name")
	}
}
