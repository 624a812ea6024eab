package sources

import (
	"strings"
	"testing"
)

func TestAllReturnsFiveOperators(t *testing.T) {
	all := All()
	if len(all) != 5 {
		t.Fatalf("expected 5 sources, got %d", len(all))
	}
	for _, s := range all {
		if s.Name == "" || s.Slug == "" || len(s.KnownGames) == 0 {
			t.Errorf("incomplete source: %+v", s)
		}
		if !strings.HasPrefix(s.BaseURL, "https://loteriasdominicanas.com/") {
			t.Errorf("source %s: unexpected base URL %s", s.Name, s.BaseURL)
		}
	}
}

func TestByName(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"Loteka", "Loteka"},
		{"loteka", "Loteka"},
		{"LEIDSA", "Leidsa"},
		{"la primera", "La Primera"},
		{"loteria-nacional", "Nacional"}, // Slug lookup
		{"loto-real", "Real"},
	}
	for _, tc := range cases {
		s, err := ByName(tc.query)
		if err != nil {
			t.Errorf("ByName(%q) failed: %v", tc.query, err)
			continue
		}
		if s.Name != tc.want {
			t.Errorf("ByName(%q) = %s, want %s", tc.query, s.Name, tc.want)
		}
	}

	if _, err := ByName("Borinquen"); err == nil {
		t.Error("ByName(Borinquen): expected error")
	}
}

func TestFilter(t *testing.T) {
	all, err := Filter(nil)
	if err != nil {
		t.Fatalf("Filter(nil) failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("Filter(nil) = %d sources, want all 5", len(all))
	}

	subset, err := Filter([]string{"real", "Loteka"})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	// Registry order is preserved regardless of filter order.
	if len(subset) != 2 || subset[0].Name != "Loteka" || subset[1].Name != "Real" {
		t.Errorf("Filter = %+v, want [Loteka Real] in registry order", subset)
	}

	if _, err := Filter([]string{"nope"}); err == nil {
		t.Error("Filter(unknown): expected error")
	}
}
