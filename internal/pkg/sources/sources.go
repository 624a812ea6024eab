// Package sources holds the static registry of lottery operators whose
// results pages get scraped.
package sources

import (
	"fmt"
	"strings"

	"github.com/dajimenez/loteriasrd/internal/pkg/models"
)

const siteBase = "https://loteriasdominicanas.com"

// registry lists the five operators. Order matters: runs process sources
// in this order, and the aggregator site hosts one page per slug.
var registry = []models.Source{
	{
		Name:    "Loteka",
		Slug:    "loteka",
		BaseURL: siteBase + "/loteka",
		KnownGames: []string{
			"Quiniela Loteka", "Mega Chances", "Mega Chances Repartidera",
			"El Extra", "Toca 3", "Mega Lotto",
		},
	},
	{
		Name:    "Leidsa",
		Slug:    "leidsa",
		BaseURL: siteBase + "/leidsa",
		KnownGames: []string{
			"Quiniela Leidsa", "Pega 3", "Loto Pool", "Mega Chances", "Mega Lotto",
		},
	},
	{
		Name:    "Nacional",
		Slug:    "loteria-nacional",
		BaseURL: siteBase + "/loteria-nacional",
		KnownGames: []string{
			"Juega+ Pega+", "Gana Más", "Quiniela Nacional",
			"Billetes Jueves", "Billetes Domingo",
		},
	},
	{
		Name:    "La Primera",
		Slug:    "la-primera",
		BaseURL: siteBase + "/la-primera",
		KnownGames: []string{
			"Quiniela La Primera", "Pega 3", "Loto Pool", "Mega Chances",
		},
	},
	{
		Name:    "Real",
		Slug:    "loto-real",
		BaseURL: siteBase + "/loto-real",
		KnownGames: []string{
			"Quinielita Real", "Pega 4 Real", "Quiniela Real", "Loto Real",
		},
	},
}

// All returns every registered source in processing order.
func All() []models.Source {
	out := make([]models.Source, len(registry))
	copy(out, registry)
	return out
}

// Names returns the registered source names in processing order.
func Names() []string {
	names := make([]string, len(registry))
	for i, s := range registry {
		names[i] = s.Name
	}
	return names
}

// ByName finds a source by name or slug, case-insensitively.
func ByName(name string) (models.Source, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, s := range registry {
		if strings.ToLower(s.Name) == n || s.Slug == n {
			return s, nil
		}
	}
	return models.Source{}, fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Filter returns the sources whose names appear in enabled, keeping
// registry order. An empty filter selects everything.
func Filter(enabled []string) ([]models.Source, error) {
	if len(enabled) == 0 {
		return All(), nil
	}
	want := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		s, err := ByName(name)
		if err != nil {
			return nil, err
		}
		want[s.Name] = true
	}
	var out []models.Source
	for _, s := range registry {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
