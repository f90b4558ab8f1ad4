package services

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// bulkCheckInterval re-arms the weekly snapshot refresh.
	bulkCheckInterval = 7 * 24 * time.Hour

	// priceCheckInterval re-arms the incremental price refresh.
	priceCheckInterval = 6 * time.Hour
)

// RefreshWorker keeps the bulk snapshot and cached prices from going stale
// without blocking request serving. Failures are logged; stale-but-present
// data keeps serving until the next cycle succeeds.
type RefreshWorker struct {
	bulk   *BulkStore
	index  *IndexService
	prices *PriceRefresher

	mu              sync.RWMutex
	lastBulkRefresh time.Time
	lastPriceSweep  time.Time
}

// RefreshStatus is the snapshot reported by the admin status endpoint.
type RefreshStatus struct {
	IndexReady      bool      `json:"index_ready"`
	IndexSize       int       `json:"index_size"`
	SnapshotAge     string    `json:"snapshot_age,omitempty"`
	LastBulkRefresh time.Time `json:"last_bulk_refresh,omitempty"`
	LastPriceSweep  time.Time `json:"last_price_sweep,omitempty"`
	StalePrices     int       `json:"stale_prices"`
}

func NewRefreshWorker(bulk *BulkStore, index *IndexService, prices *PriceRefresher) *RefreshWorker {
	return &RefreshWorker{bulk: bulk, index: index, prices: prices}
}

// EnsureBulkData downloads the snapshot if missing or stale and (re)builds
// the search index from it. Called synchronously at startup so search
// serves from a built index, and by the admin refresh endpoint.
func (w *RefreshWorker) EnsureBulkData(ctx context.Context) error {
	if err := w.bulk.EnsureFresh(ctx); err != nil {
		return err
	}
	return w.rebuildIndex()
}

// ForceBulkRefresh re-downloads the snapshot regardless of age.
func (w *RefreshWorker) ForceBulkRefresh(ctx context.Context) error {
	if err := w.bulk.Refresh(ctx); err != nil {
		return err
	}
	return w.rebuildIndex()
}

func (w *RefreshWorker) rebuildIndex() error {
	printings, err := w.bulk.Load()
	if err != nil {
		return err
	}
	w.index.Rebuild(printings)

	w.mu.Lock()
	w.lastBulkRefresh = time.Now()
	w.mu.Unlock()
	return nil
}

// RefreshStalePrices runs one bounded price refresh cycle.
func (w *RefreshWorker) RefreshStalePrices(ctx context.Context) (int, error) {
	updated, err := w.prices.RefreshStale(ctx)
	if err == nil {
		w.mu.Lock()
		w.lastPriceSweep = time.Now()
		w.mu.Unlock()
	}
	return updated, err
}

// Start runs the periodic refresh loops until ctx is cancelled.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Printf("Refresh worker started: bulk every %v, prices every %v", bulkCheckInterval, priceCheckInterval)

	bulkTicker := time.NewTicker(bulkCheckInterval)
	defer bulkTicker.Stop()
	priceTicker := time.NewTicker(priceCheckInterval)
	defer priceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresh worker stopping...")
			return
		case <-bulkTicker.C:
			if err := w.EnsureBulkData(ctx); err != nil {
				log.Printf("Refresh worker: bulk refresh failed: %v", err)
			}
		case <-priceTicker.C:
			if _, err := w.RefreshStalePrices(ctx); err != nil {
				log.Printf("Refresh worker: price refresh failed: %v", err)
			}
		}
	}
}

// Status reports current freshness for the admin endpoint.
func (w *RefreshWorker) Status() RefreshStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := RefreshStatus{
		IndexReady:      w.index.Ready(),
		IndexSize:       w.index.Size(),
		LastBulkRefresh: w.lastBulkRefresh,
		LastPriceSweep:  w.lastPriceSweep,
		StalePrices:     w.prices.StaleCount(),
	}
	if age, ok := w.bulk.Age(); ok {
		status.SnapshotAge = age.Round(time.Minute).String()
	}
	return status
}
