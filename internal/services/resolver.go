package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/codyseavey/manabase-builder/backend/internal/cache"
	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

// memoryCacheSize bounds the in-process card cache. Session traffic is a
// few hundred distinct names; 4096 keeps every hot card resident.
const memoryCacheSize = 4096

// multiFacedLayouts are the layouts whose faces must be merged into the
// canonical record.
var multiFacedLayouts = map[string]bool{
	"modal_dfc":          true,
	"transform":          true,
	"double_faced_token": true,
}

// Resolver turns a free-text card name into one CanonicalCard, hiding the
// cache tiers and the upstream client from callers. Records are cached
// indefinitely once resolved and mutated only by re-resolution.
type Resolver struct {
	client *ScryfallClient
	cache  *cache.MemoryTier
	prices *PriceRefresher
}

// NewResolver builds a resolver over a per-key disk cache directory.
// prices may be nil; when set, resolved printings are recorded in the
// price staleness cache for background refresh.
func NewResolver(client *ScryfallClient, store cache.Store, prices *PriceRefresher) (*Resolver, error) {
	tier, err := cache.NewMemoryTier(memoryCacheSize, store)
	if err != nil {
		return nil, err
	}
	return &Resolver{client: client, cache: tier, prices: prices}, nil
}

// Resolve returns the canonical record for name. "Not found" and upstream
// failures degrade to a stub with Missing set, never an error; only blank
// input is rejected.
func (r *Resolver) Resolve(ctx context.Context, name string) (*models.CanonicalCard, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrEmptyName
	}

	start := time.Now()
	defer func() {
		metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
	}()

	key := strings.ToLower(trimmed)
	if entry, ok, fromMemory := r.cache.Get(key); ok {
		var card models.CanonicalCard
		if err := json.Unmarshal(entry.Data, &card); err == nil {
			if fromMemory {
				metrics.ResolutionsTotal.WithLabelValues("memory").Inc()
			} else {
				metrics.ResolutionsTotal.WithLabelValues("disk").Inc()
			}
			return &card, nil
		}
		// Corrupt cache entry falls through to re-resolution
		log.Printf("Resolver: discarding malformed cache entry for %q", trimmed)
	}

	printing, err := r.client.NamedFuzzy(ctx, trimmed)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var nf *NotFoundError
		if errors.As(err, &nf) {
			log.Printf("Resolver: no match for %q", trimmed)
		} else {
			log.Printf("Resolver: failed to resolve %q: %v", trimmed, err)
		}
		metrics.ResolutionsTotal.WithLabelValues("missing").Inc()
		return &models.CanonicalCard{Name: trimmed, Missing: true}, nil
	}

	card := Normalize(printing)
	r.enrichCheapestPrint(ctx, printing, card)

	if r.prices != nil && printing.ID != "" {
		r.prices.Record(printing.ID, printing.Prices)
	}

	data, err := json.Marshal(card)
	if err == nil {
		if err := r.cache.Set(key, data); err != nil {
			// Memory stays authoritative; persistence is best-effort
			log.Printf("Resolver: failed to persist cache entry for %q: %v", trimmed, err)
		}
	}

	metrics.ResolutionsTotal.WithLabelValues("upstream").Inc()
	return card, nil
}

// ResolveBatch resolves names strictly in order, one at a time. The shared
// rate limiter has no per-caller fairness, so parallel resolution would
// just queue behind the same pacing gate; sequential keeps results
// order-preserving and lets callers rely on completion order.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string) ([]models.CanonicalCard, error) {
	results := make([]models.CanonicalCard, 0, len(names))
	for _, name := range names {
		card, err := r.Resolve(ctx, name)
		if err != nil {
			if errors.Is(err, ErrEmptyName) {
				results = append(results, models.CanonicalCard{Name: name, Missing: true})
				continue
			}
			// Context cancellation is the only other way Resolve errors
			return results, err
		}
		results = append(results, *card)
	}
	return results, nil
}

// Normalize converts a raw printing into the canonical record. The rules
// here are the contract the rest of the system depends on:
//   - price: usd, else usd_foil, else null
//   - multi-faced layouts with >1 face get per-face data, image fallback
//     to the first face, and identity merged from faces if empty
//   - empty identity on a nonland becomes ["C"]; lands keep []
func Normalize(p *models.Printing) *models.CanonicalCard {
	card := &models.CanonicalCard{
		Name:          p.Name,
		ScryfallURI:   p.ScryfallURI,
		Layout:        p.Layout,
		TypeLine:      p.TypeLine,
		ColorIdentity: append([]string{}, p.ColorIdentity...),
		Colors:        append([]string{}, p.Colors...),
		Fetchable:     models.IsFetchable(p.TypeLine),
	}

	prices := p.Prices
	card.Prices = &prices

	if p.ImageURIs != nil {
		card.Image = p.ImageURIs.Normal
	}

	if v, ok := parsePrice(p.Prices.USD); ok {
		card.Price = &v
	} else if v, ok := parsePrice(p.Prices.USDFoil); ok {
		card.Price = &v
	}

	if len(p.CardFaces) > 1 && multiFacedLayouts[p.Layout] {
		card.CardFaces = make([]models.CardFace, len(p.CardFaces))
		for i, face := range p.CardFaces {
			card.CardFaces[i] = models.CardFace{
				Name:          face.Name,
				TypeLine:      face.TypeLine,
				OracleText:    face.OracleText,
				ImageURIs:     face.ImageURIs,
				Colors:        append([]string{}, face.Colors...),
				ColorIdentity: append([]string{}, face.ColorIdentity...),
			}
		}

		if card.Image == "" && p.CardFaces[0].ImageURIs != nil {
			card.Image = p.CardFaces[0].ImageURIs.Normal
		}

		if len(card.ColorIdentity) == 0 {
			card.ColorIdentity = mergeFaceIdentities(p.CardFaces)
		}
	}

	if len(card.ColorIdentity) == 0 && !models.IsLand(p.TypeLine) {
		card.ColorIdentity = []string{"C"}
	}

	return card
}

// mergeFaceIdentities unions the color identities of all faces, keeping
// first-seen order so output is deterministic.
func mergeFaceIdentities(faces []models.CardFace) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, face := range faces {
		for _, c := range face.ColorIdentity {
			if !seen[c] {
				seen[c] = true
				merged = append(merged, c)
			}
		}
	}
	if merged == nil {
		return []string{}
	}
	return merged
}

// enrichCheapestPrint attaches the full prints list and lowers the card's
// price to the cheapest known printing. When a cheaper printing wins, its
// image becomes the display image.
func (r *Resolver) enrichCheapestPrint(ctx context.Context, p *models.Printing, card *models.CanonicalCard) {
	if p.PrintsURI == "" {
		return
	}

	prints, err := r.client.FetchPrints(ctx, p.PrintsURI)
	if err != nil {
		log.Printf("Resolver: failed to fetch printings for %q: %v", p.Name, err)
		return
	}

	card.Prints = make([]models.PrintSummary, len(prints))
	for i, pr := range prints {
		card.Prints[i] = models.PrintSummary{
			Set:          pr.Set,
			SetName:      pr.SetName,
			CollectorNum: pr.CollectorNum,
			Prices:       pr.Prices,
			ReleasedAt:   pr.ReleasedAt,
		}
	}

	for _, pr := range prints {
		price, ok := cheapestFinish(pr.Prices)
		if !ok {
			continue
		}
		if card.Price == nil || price < *card.Price {
			v := price
			card.Price = &v
			if pr.ImageURIs != nil && pr.ImageURIs.Normal != "" {
				card.Image = pr.ImageURIs.Normal
			}
		}
	}
}

// cheapestFinish returns the lower of usd and usd_foil, when either parses.
func cheapestFinish(p models.Prices) (float64, bool) {
	best := 0.0
	found := false
	for _, raw := range []string{p.USD, p.USDFoil} {
		if v, ok := parsePrice(raw); ok && (!found || v < best) {
			best = v
			found = true
		}
	}
	return best, found
}

func parsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
