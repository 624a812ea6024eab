package models

import (
	"encoding/json"
	"time"
)

// GameType is the canonical game category a draw belongs to, after
// reconciling operator-specific naming. Values match the game_type enum
// stored in lottery_results.
type GameType string

const (
	GameTypePega3                  GameType = "Pega 3"
	GameTypePega4Real              GameType = "Pega 4 Real"
	GameTypeLotoPool               GameType = "Loto Pool"
	GameTypeLotoReal               GameType = "Loto Real"
	GameTypeMegaLotto              GameType = "Mega Lotto"
	GameTypeMegaChances            GameType = "Mega Chances"
	GameTypeMegaChancesRepartidera GameType = "Mega Chances Repartidera"
	GameTypeQuinielaLoteka         GameType = "Quiniela Loteka"
	GameTypeQuinielaLeidsa         GameType = "Quiniela Leidsa"
	GameTypeQuinielaNacional       GameType = "Quiniela Nacional"
	GameTypeQuinielaLaPrimera      GameType = "Quiniela La Primera"
	GameTypeQuinielaReal           GameType = "Quiniela Real"
	GameTypeBilletesJueves         GameType = "Billetes Jueves"
	GameTypeBilletesDomingo        GameType = "Billetes Domingo"
)

// Source is one lottery operator whose public results page is scraped.
// Built from the static registry at startup, never mutated.
type Source struct {
	Name       string
	Slug       string
	BaseURL    string
	KnownGames []string
}

// RawDrawBlock is one result block as extracted from the page, before
// normalization. Numbers are kept as raw text tokens in document order.
type RawDrawBlock struct {
	RawGameLabel string
	DrawDateText string
	DrawDate     string // YYYY-MM-DD, empty when the date text did not match
	Special1     []string
	Special2     []string
	Regular      []string
	BlockOrder   int
}

// AllTokens flattens the block's number tokens in storage order:
// special1, then special2, then regular.
func (b *RawDrawBlock) AllTokens() []string {
	out := make([]string, 0, len(b.Special1)+len(b.Special2)+len(b.Regular))
	out = append(out, b.Special1...)
	out = append(out, b.Special2...)
	out = append(out, b.Regular...)
	return out
}

// LotteryResult is one persisted draw result row.
type LotteryResult struct {
	ID          int64     `json:"id"`
	LotteryID   int64     `json:"lottery_id"`
	LotteryName string    `json:"lottery_name,omitempty"`
	DrawDate    string    `json:"draw_date"`
	DrawTime    string    `json:"draw_time"`
	Numbers     []int64   `json:"numbers"`
	Subtitle    string    `json:"subtitle,omitempty"`
	GameType    GameType  `json:"game_type"`
	ResultOrder int       `json:"result_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScrapeStatus is the terminal status of one source's scrape attempt.
type ScrapeStatus string

const (
	StatusPending ScrapeStatus = "pending"
	StatusRunning ScrapeStatus = "running"
	StatusSuccess ScrapeStatus = "success"
	StatusWarning ScrapeStatus = "warning"
	StatusError   ScrapeStatus = "error"
)

// ScrapingLog is one persisted audit-trail entry for a source's scrape.
type ScrapingLog struct {
	ID        int64           `json:"id"`
	LotteryID int64           `json:"lottery_id"`
	Status    ScrapeStatus    `json:"status"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScrapeStage tracks where a source is in its pipeline.
type ScrapeStage string

const (
	StagePending    ScrapeStage = "pending"
	StageFetching   ScrapeStage = "fetching"
	StageExtracting ScrapeStage = "extracting"
	StagePersisting ScrapeStage = "persisting"
	StageCompleted  ScrapeStage = "completed"
	StageError      ScrapeStage = "error"
)

// SourceReport is the outcome of one source within a run.
type SourceReport struct {
	Source         string        `json:"source"`
	Stage          ScrapeStage   `json:"stage"`
	Status         ScrapeStatus  `json:"status"`
	BlocksFound    int           `json:"blocks_found"`
	Stored         int           `json:"stored"`
	Failed         int           `json:"failed"`
	ShortBlocks    int           `json:"short_blocks,omitempty"`
	UnmappedLabels []string      `json:"unmapped_labels,omitempty"`
	Duration       time.Duration `json:"-"`
	DurationText   string        `json:"duration"`
	Error          string        `json:"error,omitempty"`
}

// RunReport aggregates one full scraping run across all sources.
type RunReport struct {
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"-"`
	DurationText string         `json:"duration"`
	Sources      []SourceReport `json:"sources"`
	Succeeded    int            `json:"succeeded"`
	Warned       int            `json:"warned"`
	Errored      int            `json:"errored"`
}

// Success reports whether no source ended in error.
func (r *RunReport) Success() bool {
	return r.Errored == 0
}

// NumberFrequency is how often one number appeared in stored draws.
type NumberFrequency struct {
	Number    int `json:"number"`
	Frequency int `json:"frequency"`
}

// LotteryStats shapes the frequency aggregation consumed by charts.
type LotteryStats struct {
	LotteryID    int64             `json:"lottery_id"`
	Frequency    []NumberFrequency `json:"frequency"`
	LastDrawDate string            `json:"lastDrawDate"`
	TotalDraws   int               `json:"totalDraws"`
}

// Prediction is one stored weighted random pick. Purely recreational,
// carries no predictive validity.
type Prediction struct {
	ID               int64     `json:"id"`
	LotteryID        int64     `json:"lottery_id"`
	Numbers          []int64   `json:"numbers"`
	Confidence       int       `json:"confidence"`
	Method           string    `json:"method"`
	PredictedForDate string    `json:"predicted_for_date"`
	CreatedAt        time.Time `json:"created_at"`
}
