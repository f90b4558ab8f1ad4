package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/codyseavey/manabase-builder/backend/internal/cache"
	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

const (
	// priceStaleAfter matches the bulk refresh window: a price older than
	// a week is due for an upstream re-check.
	priceStaleAfter = 7 * 24 * time.Hour

	// priceRefreshBatchLimit bounds one refresh cycle so a large backlog
	// can't monopolize the shared upstream rate limit.
	priceRefreshBatchLimit = 200
)

// PriceEntry is one tracked price in the staleness map, keyed by printing
// ID. The entry's timestamp lives on the cache envelope.
type PriceEntry struct {
	Price string `json:"price"`
}

// PriceRefresher tracks known printing prices in a single-file map cache
// and re-fetches the stale ones in bounded batches.
type PriceRefresher struct {
	client *ScryfallClient
	store  *cache.MapFileStore
}

func NewPriceRefresher(client *ScryfallClient, mapFilePath string) *PriceRefresher {
	return &PriceRefresher{
		client: client,
		store:  cache.NewMapFileStore(mapFilePath),
	}
}

// Record remembers a printing's current price so the background refresher
// knows to keep it current. Called by the resolver on every upstream hit.
func (r *PriceRefresher) Record(printingID string, prices models.Prices) {
	price := prices.USD
	if price == "" {
		price = prices.USDFoil
	}
	if price == "" {
		return
	}
	data, err := json.Marshal(PriceEntry{Price: price})
	if err != nil {
		return
	}
	if err := r.store.Set(printingID, data); err != nil {
		log.Printf("Price refresher: failed to persist entry for %s: %v", printingID, err)
	}
	metrics.PriceCacheSize.Set(float64(r.store.Len()))
}

// StaleCount returns how many tracked prices are past the staleness
// threshold.
func (r *PriceRefresher) StaleCount() int {
	count := 0
	for _, id := range r.store.Keys() {
		if r.store.Expired(id, priceStaleAfter) {
			count++
		}
	}
	return count
}

// RefreshStale re-fetches prices for entries older than the staleness
// threshold, up to the batch limit. Individual failures are logged and
// skipped; the cycle always completes.
func (r *PriceRefresher) RefreshStale(ctx context.Context) (int, error) {
	var stale []string
	for _, id := range r.store.Keys() {
		if r.store.Expired(id, priceStaleAfter) {
			stale = append(stale, id)
		}
	}

	if len(stale) == 0 {
		log.Println("Price refresher: all prices up to date")
		return 0, nil
	}
	if len(stale) > priceRefreshBatchLimit {
		stale = stale[:priceRefreshBatchLimit]
	}

	log.Printf("Price refresher: updating %d stale prices", len(stale))

	updated := 0
	for _, id := range stale {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		card, err := r.client.GetCard(ctx, id)
		if err != nil {
			log.Printf("Price refresher: failed to refresh %s: %v", id, err)
			continue
		}

		price := card.Prices.USD
		if price == "" {
			price = card.Prices.USDFoil
		}
		if price == "" {
			continue
		}

		data, err := json.Marshal(PriceEntry{Price: price})
		if err != nil {
			continue
		}
		if err := r.store.Set(id, data); err != nil {
			log.Printf("Price refresher: failed to persist %s: %v", id, err)
			continue
		}
		updated++
	}

	metrics.PriceRefreshTotal.Add(float64(updated))
	metrics.PriceCacheSize.Set(float64(r.store.Len()))
	log.Printf("Price refresher: updated %d prices", updated)
	return updated, nil
}
