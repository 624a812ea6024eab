// Package extract parses result blocks out of a fetched results page.
// It works on the captured HTML rather than the live browser DOM, so the
// parsing logic is exercised against fixture pages in tests.
package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// Selectors observed across the five operator pages on the aggregator
// site. The label candidates are tried in order; the first match wins.
const (
	blockSelector = ".game-block"
	dateSelector  = ".session-date"
	labelSelector = ".game-title, .game-name, h3, h4"
	scoreSelector = ".score"
)

var datePattern = regexp.MustCompile(`(\d{2})-(\d{2})`)

// Extractor turns page HTML into raw draw blocks. Now supplies the
// clock used to complete DD-MM dates with a year; it defaults to
// time.Now. Pages only show day and month, so a December page scraped
// in January resolves to the scrape year.
type Extractor struct {
	Now func() time.Time
}

func New() *Extractor {
	return &Extractor{Now: time.Now}
}

// Parse enumerates all result blocks in document order. Blocks missing
// a label or a date are kept with those fields empty: the normalizer's
// count fallback still classifies them, so no drawn numbers are lost to
// sloppy markup. The error is non-nil only when the HTML itself cannot
// be tokenized.
func (e *Extractor) Parse(html string) ([]models.RawDrawBlock, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page HTML: %w", err)
	}

	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	var blocks []models.RawDrawBlock
	doc.Find(blockSelector).Each(func(i int, sel *goquery.Selection) {
		blocks = append(blocks, e.parseBlock(i, sel, now))
	})
	return blocks, nil
}

func (e *Extractor) parseBlock(order int, sel *goquery.Selection, now time.Time) models.RawDrawBlock {
	block := models.RawDrawBlock{BlockOrder: order}

	block.DrawDateText = cleanText(sel.Find(dateSelector).First().Text())
	block.DrawDate = completeDate(block.DrawDateText, now)

	block.RawGameLabel = cleanText(sel.Find(labelSelector).First().Text())
	if block.RawGameLabel == "" {
		slog.Debug("Result block has no game label, relying on count fallback", "block_order", order)
	}

	sel.Find(scoreSelector).Each(func(_ int, score *goquery.Selection) {
		token := cleanText(score.Text())
		if token == "" {
			return
		}
		class, _ := score.Attr("class")
		switch {
		case strings.Contains(class, "special1"):
			block.Special1 = append(block.Special1, token)
		case strings.Contains(class, "special2"):
			block.Special2 = append(block.Special2, token)
		case strings.Contains(class, "special"):
			// Unknown special marker, grouped with the first subset so
			// the token is not lost.
			block.Special1 = append(block.Special1, token)
		default:
			block.Regular = append(block.Regular, token)
		}
	})

	return block
}

// completeDate extracts a DD-MM pattern and combines it with the current
// year. Returns "" when the text carries no recognizable date.
func completeDate(dateText string, now time.Time) string {
	m := datePattern.FindStringSubmatch(dateText)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%d-%s-%s", now.Year(), m[2], m[1])
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
