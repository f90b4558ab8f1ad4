package services

import (
	"errors"
	"testing"

	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

func testCatalog() []models.Printing {
	return []models.Printing{
		{ID: "bolt-1", OracleID: "o-bolt", Name: "Lightning Bolt", TypeLine: "Instant", ReleasedAt: "2010-07-16", Set: "m11", Prices: models.Prices{USD: "1.50"}, ImageURIs: img("bolt-1")},
		{ID: "bolt-2", OracleID: "o-bolt", Name: "Lightning Bolt", TypeLine: "Instant", ReleasedAt: "2021-04-23", Set: "sta", Prices: models.Prices{USD: "2.00"}, ImageURIs: img("bolt-2")},
		{ID: "strike-1", OracleID: "o-strike", Name: "Lightning Strike", TypeLine: "Instant", ReleasedAt: "2013-09-27", ImageURIs: img("strike-1")},
		{ID: "sol-1", OracleID: "o-sol", Name: "Sol Ring", TypeLine: "Artifact", ReleasedAt: "1993-08-05", ImageURIs: img("sol-1")},
		{ID: "solemn-1", OracleID: "o-solemn", Name: "Solemn Simulacrum", TypeLine: "Artifact Creature — Golem", ReleasedAt: "2003-10-02", ImageURIs: img("solemn-1")},
	}
}

func TestSearchExactMatchShortCircuits(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	// "Lightning Strike" also starts with "lightning", but an exact match
	// returns alone
	results := idx.Search("Lightning Bolt")
	if len(results) != 1 {
		t.Fatalf("Expected exactly 1 result for exact match, got %d", len(results))
	}
	if results[0].Name != "Lightning Bolt" {
		t.Errorf("Expected Lightning Bolt, got %q", results[0].Name)
	}
}

func TestSearchExactMatchIsCaseInsensitive(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	results := idx.Search("  sol ring ")
	if len(results) != 1 || results[0].Name != "Sol Ring" {
		t.Fatalf("Expected single Sol Ring result, got %v", results)
	}
}

func TestSearchFuzzyTypo(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	results := idx.Search("lightnng bolt")
	if len(results) == 0 {
		t.Fatal("Expected fuzzy results for typo query")
	}
	if results[0].Name != "Lightning Bolt" {
		t.Errorf("Expected Lightning Bolt ranked first, got %q", results[0].Name)
	}
}

func TestSearchSubstring(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	results := idx.Search("lightning")
	if len(results) != 2 {
		t.Fatalf("Expected both Lightning cards, got %d results", len(results))
	}
	for _, card := range results {
		if card.Name != "Lightning Bolt" && card.Name != "Lightning Strike" {
			t.Errorf("Unexpected result %q", card.Name)
		}
	}
}

func TestSearchNoDuplicateResults(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	results := idx.Search("sol")
	seen := make(map[string]bool)
	for _, card := range results {
		if seen[card.Name] {
			t.Errorf("Duplicate result %q", card.Name)
		}
		seen[card.Name] = true
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	if results := idx.Search("   "); len(results) != 0 {
		t.Errorf("Expected no results for blank query, got %d", len(results))
	}
}

func TestSearchResultCap(t *testing.T) {
	var printings []models.Printing
	for i := 0; i < 40; i++ {
		id := string(rune('a' + i%26))
		printings = append(printings, models.Printing{
			ID:       "card-" + id + string(rune('0'+i/26)),
			OracleID: "o-" + id + string(rune('0'+i/26)),
			Name:     "Mountain Variant " + id + string(rune('0'+i/26)),
			ImageURIs: img("x"),
		})
	}

	idx := NewSearchIndex(printings)
	results := idx.Search("mountain variant")
	if len(results) > maxSearchResults {
		t.Errorf("Expected at most %d results, got %d", maxSearchResults, len(results))
	}
	if len(results) != maxSearchResults {
		t.Errorf("Expected cap to be reached with 40 matches, got %d", len(results))
	}
}

func TestIndexDedupsAcrossPrintings(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	// Two Lightning Bolt printings collapse to one indexed card
	if idx.Size() != 4 {
		t.Errorf("Expected 4 unique cards, got %d", idx.Size())
	}
}

func TestLookupExactAttachesPrints(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	card, err := idx.LookupExact("lightning bolt")
	if err != nil {
		t.Fatalf("LookupExact failed: %v", err)
	}
	if card.Name != "Lightning Bolt" {
		t.Errorf("Expected Lightning Bolt, got %q", card.Name)
	}
	// Both printings reported, not just the representative
	if len(card.Prints) != 2 {
		t.Errorf("Expected 2 prints, got %d", len(card.Prints))
	}
}

func TestLookupExactNotFound(t *testing.T) {
	idx := NewSearchIndex(testCatalog())

	_, err := idx.LookupExact("Black Lotus")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
}

func TestIndexServiceLifecycle(t *testing.T) {
	svc := NewIndexService()

	if svc.Ready() {
		t.Error("Expected service not ready before rebuild")
	}
	if results := svc.Search("forest"); results != nil {
		t.Errorf("Expected nil results before rebuild, got %v", results)
	}
	if _, err := svc.LookupExact("Forest"); err == nil {
		t.Error("Expected lookup error before rebuild")
	}

	svc.Rebuild(testCatalog())
	if !svc.Ready() {
		t.Error("Expected service ready after rebuild")
	}
	if svc.Size() != 4 {
		t.Errorf("Expected size 4, got %d", svc.Size())
	}
	if results := svc.Search("Sol Ring"); len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}
