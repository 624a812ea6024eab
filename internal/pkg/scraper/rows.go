package scraper

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dajimenez/loteriasrd/internal/pkg/gametype"
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// buildStats collects per-source diagnostics produced while turning raw
// blocks into storage rows. They end up in the run report and in the
// scraping log details.
type buildStats struct {
	ShortBlocks    int
	UnmappedLabels []string
}

// buildRows normalizes extracted blocks into storage rows. Blocks keep
// their page order via result_order; number tokens that fail to parse as
// integers are dropped with a diagnostic.
func buildRows(source models.Source, blocks []models.RawDrawBlock, now time.Time) ([]models.LotteryResult, buildStats) {
	var stats buildStats
	rows := make([]models.LotteryResult, 0, len(blocks))

	today := now.Format("2006-01-02")
	for _, block := range blocks {
		nums := parseTokens(source.Name, block)

		gt, mapped := gametype.Normalize(block.RawGameLabel, len(nums))
		if !mapped {
			stats.UnmappedLabels = append(stats.UnmappedLabels, block.RawGameLabel)
			slog.Warn("No mapping for game label, using count fallback",
				"source", source.Name, "label", block.RawGameLabel,
				"number_count", len(nums), "game_type", gt)
		}

		nums = gametype.ClampNumbers(gt, nums)
		if want := gametype.ExpectedCount(gt); want > 0 && len(nums) < want {
			stats.ShortBlocks++
			slog.Warn("Result block has fewer numbers than the game expects",
				"source", source.Name, "game_type", gt,
				"got", len(nums), "want", want)
		}

		drawDate := block.DrawDate
		if drawDate == "" {
			drawDate = today
		}

		rows = append(rows, models.LotteryResult{
			DrawDate:    drawDate,
			DrawTime:    "00:00",
			Numbers:     nums,
			Subtitle:    block.RawGameLabel,
			GameType:    gt,
			ResultOrder: block.BlockOrder + 1,
		})
	}
	return rows, stats
}

func parseTokens(sourceName string, block models.RawDrawBlock) []int64 {
	tokens := block.AllTokens()
	nums := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			slog.Debug("Skipping non-numeric token",
				"source", sourceName, "label", block.RawGameLabel, "token", tok)
			continue
		}
		nums = append(nums, n)
	}
	return nums
}
