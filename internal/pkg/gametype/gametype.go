// Package gametype reconciles the raw game labels scraped from operator
// pages into the canonical GameType vocabulary. The pages disagree with
// each other (and with themselves over time) about naming, so the mapping
// is a plain table plus a count-based fallback that keeps normalization
// total over all inputs.
package gametype

import (
	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

// labelMapping maps raw page labels to canonical game types. Many-to-one
// on purpose: operators rename games and run co-branded variants.
var labelMapping = map[string]models.GameType{
	// Loteka
	"Toca 3":          models.GameTypePega3,
	"¿Ganaste?":       models.GameTypeQuinielaLoteka,
	"Mega Chances":    models.GameTypeMegaChances,
	"MC Repartidera":  models.GameTypeMegaChancesRepartidera,
	"MegaLotto":       models.GameTypeMegaLotto,
	"Quiniela Loteka": models.GameTypeQuinielaLoteka,

	// Leidsa
	"Pega 3 Más":            models.GameTypePega3,
	"Super Kino TV":         models.GameTypePega3,
	"Loto - Super Loto Más": models.GameTypeLotoPool,
	"Super Palé":            models.GameTypePega3,
	"Quiniela Leidsa":       models.GameTypeQuinielaLeidsa,

	// Nacional
	"Juega+ Pega+":      models.GameTypePega3,
	"Gana Más":          models.GameTypePega3,
	"Billetes Jueves":   models.GameTypeBilletesJueves,
	"Billetes Domingo":  models.GameTypeBilletesDomingo,
	"Quiniela Nacional": models.GameTypeQuinielaNacional,

	// La Primera
	"El Quinielón Día":    models.GameTypeQuinielaLaPrimera,
	"El Quinielón Noche":  models.GameTypeQuinielaLaPrimera,
	"Quiniela La Primera": models.GameTypeQuinielaLaPrimera,
	"Primera Noche":       models.GameTypeQuinielaLaPrimera,
	"Loto 5":              models.GameTypeLotoPool,

	// Real
	"Tu Fecha Real":   models.GameTypeQuinielaReal,
	"Pega 4 Real":     models.GameTypePega4Real,
	"Nueva Yol Real":  models.GameTypeQuinielaReal,
	"Loto Real":       models.GameTypeLotoReal,
	"Quiniela Real":   models.GameTypeQuinielaReal,
	"Quinielita Real": models.GameTypeQuinielaReal,
	"Super Pale":      models.GameTypePega3,
}

// expectedCounts is how many numbers each game draws. 0 means
// unconstrained (billetes blocks list prize tiers, not a fixed pick).
var expectedCounts = map[models.GameType]int{
	models.GameTypePega3:                  3,
	models.GameTypeQuinielaLoteka:         3,
	models.GameTypeQuinielaLeidsa:         3,
	models.GameTypeQuinielaNacional:       3,
	models.GameTypeQuinielaLaPrimera:      3,
	models.GameTypeQuinielaReal:           3,
	models.GameTypePega4Real:              4,
	models.GameTypeLotoPool:               5,
	models.GameTypeMegaChances:            5,
	models.GameTypeMegaChancesRepartidera: 5,
	models.GameTypeLotoReal:               6,
	models.GameTypeMegaLotto:              6,
}

// Normalize resolves a raw page label to a canonical game type. The bool
// is false when the label missed the table and the count fallback decided
// instead; callers log those so the table can be extended.
func Normalize(rawLabel string, numberCount int) (models.GameType, bool) {
	if gt, ok := labelMapping[rawLabel]; ok {
		return gt, true
	}
	switch numberCount {
	case 3:
		return models.GameTypePega3, false
	case 4:
		return models.GameTypePega4Real, false
	case 5:
		return models.GameTypeLotoPool, false
	default:
		return models.GameTypeQuinielaReal, false
	}
}

// ExpectedCount returns how many numbers gt draws, or 0 when the game
// has no fixed pick size.
func ExpectedCount(gt models.GameType) int {
	return expectedCounts[gt]
}

// ClampNumbers truncates nums from the front to the game's expected
// count. Short lists are returned as-is; the persistence layer flags
// them rather than padding or dropping them.
func ClampNumbers(gt models.GameType, nums []int64) []int64 {
	want := ExpectedCount(gt)
	if want == 0 || len(nums) <= want {
		return nums
	}
	return nums[:want]
}
