package predictions

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

// stubStore implements only the methods the generator touches.
type stubStore struct {
	storage.Storage
	sets   [][]int64
	stored []models.Prediction
}

func (s *stubStore) GetRecentNumbers(ctx context.Context, lotteryID int64, limit int) ([][]int64, error) {
	return s.sets, nil
}

func (s *stubStore) StorePrediction(ctx context.Context, p *models.Prediction) error {
	s.stored = append(s.stored, *p)
	return nil
}

func newTestGenerator(store storage.Storage) *Generator {
	g := New(store, config.PredictionsConfig{HistoryLimit: 100, PickCount: 3})
	g.rng = rand.New(rand.NewSource(1))
	g.now = func() time.Time { return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerateNoHistory(t *testing.T) {
	g := newTestGenerator(&stubStore{})
	_, err := g.Generate(context.Background(), 1)
	if !errors.Is(err, storage.ErrNoHistory) {
		t.Errorf("error = %v, want ErrNoHistory", err)
	}
}

func TestGenerateProducesThreeStoredPredictions(t *testing.T) {
	store := &stubStore{
		sets: [][]int64{
			{7, 14, 21}, {7, 14, 33}, {7, 21, 42}, {7, 14, 21},
			{3, 9, 27}, {7, 14, 50}, {21, 33, 60}, {9, 14, 7},
		},
	}
	g := newTestGenerator(store)

	preds, err := g.Generate(context.Background(), 5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(preds) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(preds))
	}
	if len(store.stored) != 3 {
		t.Fatalf("expected 3 stored predictions, got %d", len(store.stored))
	}

	methods := map[string]bool{}
	for _, p := range preds {
		methods[p.Method] = true
		if p.LotteryID != 5 {
			t.Errorf("%s: lottery id = %d, want 5", p.Method, p.LotteryID)
		}
		if p.PredictedForDate != "2025-06-11" {
			t.Errorf("%s: predicted for %q, want tomorrow 2025-06-11", p.Method, p.PredictedForDate)
		}
		if len(p.Numbers) == 0 || len(p.Numbers) > 3 {
			t.Errorf("%s: %d numbers, want 1-3", p.Method, len(p.Numbers))
		}
		if p.Confidence < 0 || p.Confidence > 90 {
			t.Errorf("%s: confidence = %d, out of range", p.Method, p.Confidence)
		}
	}
	for _, m := range []string{MethodFrequent, MethodMixed, MethodPattern} {
		if !methods[m] {
			t.Errorf("missing method %s", m)
		}
	}
}

func TestMostFrequentIsDeterministic(t *testing.T) {
	sets := [][]int64{
		{7, 14, 21}, {7, 14, 33}, {7, 21, 42},
	}
	freq := frequencies(sets)
	g := newTestGenerator(&stubStore{})

	p := g.mostFrequent(freq, 3)
	// 7 appears 3 times, 14 and 21 twice each; ties break ascending.
	want := []int64{7, 14, 21}
	if len(p.Numbers) != len(want) {
		t.Fatalf("numbers = %v, want %v", p.Numbers, want)
	}
	for i := range want {
		if p.Numbers[i] != want[i] {
			t.Errorf("numbers[%d] = %d, want %d", i, p.Numbers[i], want[i])
		}
	}
}

func TestFrequenciesOrdering(t *testing.T) {
	freq := frequencies([][]int64{{5, 5, 9}, {9, 5, 2}})
	if freq[0].number != 5 || freq[0].frequency != 3 {
		t.Errorf("top = %+v, want number 5 with frequency 3", freq[0])
	}
	if freq[1].number != 9 || freq[1].frequency != 2 {
		t.Errorf("second = %+v, want number 9 with frequency 2", freq[1])
	}
	if freq[2].number != 2 || freq[2].frequency != 1 {
		t.Errorf("third = %+v, want number 2 with frequency 1", freq[2])
	}
}

func TestMixedBlendsHotAndCold(t *testing.T) {
	// Ten numbers with strictly decreasing frequency.
	var sets [][]int64
	for n := int64(1); n <= 10; n++ {
		for c := int64(0); c <= 10-n; c++ {
			sets = append(sets, []int64{n})
		}
	}
	freq := frequencies(sets)
	g := newTestGenerator(&stubStore{})

	p := g.mixed(freq, 3)
	if len(p.Numbers) != 3 {
		t.Fatalf("numbers = %v, want 3 picks", p.Numbers)
	}
	// Two hot picks from the top, one cold pick from the bottom.
	if p.Numbers[0] != 1 || p.Numbers[1] != 2 {
		t.Errorf("hot picks = %v, want [1 2 ...]", p.Numbers)
	}
	if p.Numbers[2] != 10 {
		t.Errorf("cold pick = %d, want 10", p.Numbers[2])
	}
}
