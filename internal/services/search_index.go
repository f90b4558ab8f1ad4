package services

import (
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/codyseavey/manabase-builder/backend/internal/fuzzy"
	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

const (
	maxSearchResults = 20
	minFuzzyScore    = 70
)

// SearchIndex answers free-text card-name queries against the deduplicated
// catalog. Building it is a one-time cost per bulk refresh; queries never
// rebuild anything.
type SearchIndex struct {
	cards     []models.CanonicalCard // normalized deduped representatives
	names     []string               // lowercased, aligned with cards
	keys      []string               // group keys, aligned with cards
	byName    map[string][]int       // lowercased name -> indices
	allPrints map[string][]models.PrintSummary
}

// NewSearchIndex dedups the catalog and builds the lookup structures. The
// full printing list is kept (as summaries) so exact lookups can report
// every printing, not just the chosen representative.
func NewSearchIndex(printings []models.Printing) *SearchIndex {
	deduped := Dedup(printings)

	idx := &SearchIndex{
		cards:     make([]models.CanonicalCard, len(deduped)),
		names:     make([]string, len(deduped)),
		keys:      make([]string, len(deduped)),
		byName:    make(map[string][]int, len(deduped)),
		allPrints: make(map[string][]models.PrintSummary),
	}

	for i, p := range deduped {
		idx.cards[i] = *Normalize(&p)
		lower := strings.ToLower(p.Name)
		idx.names[i] = lower
		idx.keys[i] = GroupKey(p)
		idx.byName[lower] = append(idx.byName[lower], i)
	}

	for _, p := range printings {
		key := GroupKey(p)
		if key == "" {
			continue
		}
		idx.allPrints[key] = append(idx.allPrints[key], models.PrintSummary{
			Set:          p.Set,
			SetName:      p.SetName,
			CollectorNum: p.CollectorNum,
			Prices:       p.Prices,
			ReleasedAt:   p.ReleasedAt,
		})
	}

	log.Printf("Search index: %d printings deduplicated to %d unique cards", len(printings), len(deduped))
	return idx
}

// Size returns the number of unique cards indexed.
func (idx *SearchIndex) Size() int {
	return len(idx.cards)
}

// Search returns up to 20 cards ranked by relevance. An exact
// case-insensitive match short-circuits and is returned alone; otherwise
// fuzzy matches (best score first) are merged with substring fallback
// matches, deduplicated by canonical identity.
func (idx *SearchIndex) Search(query string) []models.CanonicalCard {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	if exact, ok := idx.byName[q]; ok && len(exact) > 0 {
		return []models.CanonicalCard{idx.cards[exact[0]]}
	}

	type scored struct {
		index int
		score int
	}
	var matches []scored
	for i, name := range idx.names {
		if score := fuzzy.Score(q, name); score >= minFuzzyScore {
			matches = append(matches, scored{index: i, score: score})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})

	seen := make(map[string]bool)
	var results []models.CanonicalCard
	appendCard := func(i int) {
		key := idx.keys[i]
		if seen[key] || len(results) >= maxSearchResults {
			return
		}
		seen[key] = true
		results = append(results, idx.cards[i])
	}

	for _, m := range matches {
		appendCard(m.index)
	}

	// Substring fallback catches names the fuzzy scorer ranks too low,
	// e.g. a short query inside a long multi-word name.
	for i, name := range idx.names {
		if strings.Contains(name, q) {
			appendCard(i)
		}
	}

	return results
}

// LookupExact returns the single exact match for name with its full prints
// list, or NotFoundError. With multiple same-name cards surviving dedup,
// the first in index order wins.
func (idx *SearchIndex) LookupExact(name string) (*models.CanonicalCard, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	indices, ok := idx.byName[lower]
	if !ok || len(indices) == 0 {
		return nil, &NotFoundError{Name: name}
	}

	i := indices[0]
	card := idx.cards[i] // copy; the index entry stays pristine
	card.Prints = append([]models.PrintSummary{}, idx.allPrints[idx.keys[i]]...)
	return &card, nil
}

// IndexService holds the current search index and swaps it atomically on
// bulk refresh, so request handlers never see a half-built index.
type IndexService struct {
	mu    sync.RWMutex
	index *SearchIndex
}

func NewIndexService() *IndexService {
	return &IndexService{}
}

// Rebuild replaces the index with one built from printings.
func (s *IndexService) Rebuild(printings []models.Printing) {
	idx := NewSearchIndex(printings)
	s.mu.Lock()
	s.index = idx
	s.mu.Unlock()
	metrics.IndexSize.Set(float64(idx.Size()))
}

// Ready reports whether an index has been built.
func (s *IndexService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index != nil
}

// Size returns the unique-card count, 0 when not yet built.
func (s *IndexService) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return 0
	}
	return s.index.Size()
}

func (s *IndexService) Search(query string) []models.CanonicalCard {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx == nil {
		return nil
	}
	metrics.SearchesTotal.Inc()
	return idx.Search(query)
}

func (s *IndexService) LookupExact(name string) (*models.CanonicalCard, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	if idx == nil {
		return nil, &NotFoundError{Name: name}
	}
	return idx.LookupExact(name)
}
