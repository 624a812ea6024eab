// Package predictions generates weighted random number picks from a
// lottery's stored draw history. The picks are recreational: frequency
// counting over past draws carries no predictive power and the service
// makes no claim otherwise.
package predictions

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/config"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
	"github.com/dajimenez/loteriasrd/internal/pkg/storage"
)

const (
	MethodFrequent = "frequent"
	MethodMixed    = "mixed"
	MethodPattern  = "pattern"
)

// Generator produces and stores predictions for a lottery.
type Generator struct {
	store storage.Storage
	cfg   config.PredictionsConfig
	rng   *rand.Rand
	now   func() time.Time
}

func New(store storage.Storage, cfg config.PredictionsConfig) *Generator {
	return &Generator{
		store: store,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

type numberFrequency struct {
	number    int64
	frequency int
}

// Generate builds three predictions (most-frequent, hot/cold mix,
// recent-pattern) from the lottery's recent draws and stores each one
// for tomorrow's date. Returns storage.ErrNoHistory when the lottery
// has no stored results.
func (g *Generator) Generate(ctx context.Context, lotteryID int64) ([]models.Prediction, error) {
	sets, err := g.store.GetRecentNumbers(ctx, lotteryID, g.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for lottery %d: %w", lotteryID, err)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("lottery %d: %w", lotteryID, storage.ErrNoHistory)
	}

	freq := frequencies(sets)
	count := g.cfg.PickCount
	forDate := g.now().AddDate(0, 0, 1).Format("2006-01-02")

	preds := []models.Prediction{
		g.mostFrequent(freq, count),
		g.mixed(freq, count),
		g.recentPattern(sets, freq, count),
	}

	for i := range preds {
		preds[i].LotteryID = lotteryID
		preds[i].PredictedForDate = forDate
		if err := g.store.StorePrediction(ctx, &preds[i]); err != nil {
			slog.Error("Failed to store prediction",
				"lottery_id", lotteryID, "method", preds[i].Method, "error", err)
		}
	}
	return preds, nil
}

// frequencies counts occurrences across all draws, most frequent first.
// Ties keep ascending number order so the result is deterministic.
func frequencies(sets [][]int64) []numberFrequency {
	counts := make(map[int64]int)
	for _, nums := range sets {
		for _, n := range nums {
			counts[n]++
		}
	}
	freq := make([]numberFrequency, 0, len(counts))
	for n, c := range counts {
		freq = append(freq, numberFrequency{number: n, frequency: c})
	}
	sort.Slice(freq, func(i, j int) bool {
		if freq[i].frequency != freq[j].frequency {
			return freq[i].frequency > freq[j].frequency
		}
		return freq[i].number < freq[j].number
	})
	return freq
}

// mostFrequent picks the top numbers outright. Confidence reflects how
// dominant the picked numbers are in the overall distribution, capped
// at 90.
func (g *Generator) mostFrequent(freq []numberFrequency, count int) models.Prediction {
	n := min(count, len(freq))
	numbers := make([]int64, 0, n)
	selected := 0
	total := 0
	for i, f := range freq {
		total += f.frequency
		if i < n {
			numbers = append(numbers, f.number)
			selected += f.frequency
		}
	}

	confidence := 0
	if total > 0 {
		confidence = selected * 100 * 3 / total
		if confidence > 90 {
			confidence = 90
		}
	}

	return models.Prediction{
		Numbers:    numbers,
		Confidence: confidence,
		Method:     MethodFrequent,
	}
}

// mixed combines hot numbers from the top of the distribution with cold
// ones from the bottom.
func (g *Generator) mixed(freq []numberFrequency, count int) models.Prediction {
	hotN := (count + 1) / 2
	coldN := count / 2

	numbers := make([]int64, 0, count)
	for i := 0; i < hotN && i < len(freq); i++ {
		numbers = append(numbers, freq[i].number)
	}
	for i := 0; i < coldN && len(freq)-1-i >= hotN; i++ {
		numbers = append(numbers, freq[len(freq)-1-i].number)
	}

	return models.Prediction{
		Numbers:    numbers,
		Confidence: 65 + g.rng.Intn(10),
		Method:     MethodMixed,
	}
}

// recentPattern favors generally common numbers that stayed out of the
// last few draws, filling up from the frequent pool when candidates run
// short.
func (g *Generator) recentPattern(sets [][]int64, freq []numberFrequency, count int) models.Prediction {
	recent := make(map[int64]bool)
	for i := 0; i < len(sets) && i < 5; i++ {
		for _, n := range sets[i] {
			recent[n] = true
		}
	}

	var candidates []int64
	for _, f := range freq {
		if !recent[f.number] && f.frequency > 1 {
			candidates = append(candidates, f.number)
		}
		if len(candidates) >= count*2 {
			break
		}
	}

	numbers := make([]int64, 0, count)
	seen := make(map[int64]bool)
	for len(numbers) < count && len(candidates) > 0 {
		i := g.rng.Intn(len(candidates))
		n := candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)
		if !seen[n] {
			numbers = append(numbers, n)
			seen[n] = true
		}
	}
	for attempts := 0; len(numbers) < count && attempts < 100 && len(freq) > 0; attempts++ {
		pool := min(10, len(freq))
		n := freq[g.rng.Intn(pool)].number
		if !seen[n] {
			numbers = append(numbers, n)
			seen[n] = true
		}
	}

	return models.Prediction{
		Numbers:    numbers,
		Confidence: 55 + g.rng.Intn(20),
		Method:     MethodPattern,
	}
}
