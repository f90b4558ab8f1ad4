package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/codyseavey/manabase-builder/backend/internal/metrics"
	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

const (
	// bulkRefreshInterval is how long a snapshot stays fresh. The full
	// catalog moves slowly; weekly matches the price staleness window.
	bulkRefreshInterval = 7 * 24 * time.Hour
	bulkSnapshotFile    = "scryfall-default-cards.json"
)

// BulkStore persists the full downloaded catalog of card printings and
// knows when it needs refreshing.
type BulkStore struct {
	client  *ScryfallClient
	dataDir string
}

func NewBulkStore(client *ScryfallClient, dataDir string) (*BulkStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &BulkStore{client: client, dataDir: dataDir}, nil
}

// SnapshotPath returns the location of the bulk snapshot file.
func (s *BulkStore) SnapshotPath() string {
	return filepath.Join(s.dataDir, bulkSnapshotFile)
}

// Age returns the snapshot's age, or false if no snapshot exists.
func (s *BulkStore) Age() (time.Duration, bool) {
	info, err := os.Stat(s.SnapshotPath())
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// Fresh reports whether the snapshot exists and is younger than the
// refresh interval.
func (s *BulkStore) Fresh() bool {
	age, ok := s.Age()
	if !ok {
		return false
	}
	metrics.BulkSnapshotAgeSeconds.Set(age.Seconds())
	return age < bulkRefreshInterval
}

// Refresh downloads a new snapshot: first the bulk-data manifest, then the
// actual payload from its download_uri. The payload lands in a temp file
// and is renamed into place so a failed download never clobbers a usable
// snapshot.
func (s *BulkStore) Refresh(ctx context.Context) error {
	log.Println("Bulk store: downloading bulk data manifest...")
	manifest, err := s.client.DefaultCardsManifest(ctx)
	if err != nil {
		metrics.BulkRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to fetch bulk manifest: %w", err)
	}

	log.Printf("Bulk store: downloading catalog from %s", manifest.DownloadURI)
	tmpPath := s.SnapshotPath() + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		metrics.BulkRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}

	if err := s.client.Download(ctx, manifest.DownloadURI, f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		metrics.BulkRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to download bulk data: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		metrics.BulkRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to finish snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, s.SnapshotPath()); err != nil {
		metrics.BulkRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	metrics.BulkRefreshTotal.WithLabelValues("success").Inc()
	metrics.BulkSnapshotAgeSeconds.Set(0)
	log.Println("Bulk store: snapshot updated")
	return nil
}

// EnsureFresh refreshes the snapshot only when missing or stale.
func (s *BulkStore) EnsureFresh(ctx context.Context) error {
	if s.Fresh() {
		log.Println("Bulk store: snapshot already up to date")
		metrics.BulkRefreshTotal.WithLabelValues("fresh").Inc()
		return nil
	}
	return s.Refresh(ctx)
}

// Load reads every printing from the snapshot. Errors here block index
// building and are worth failing loudly over, unlike cache reads.
func (s *BulkStore) Load() ([]models.Printing, error) {
	raw, err := os.ReadFile(s.SnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk snapshot: %w", err)
	}

	var printings []models.Printing
	if err := json.Unmarshal(raw, &printings); err != nil {
		return nil, fmt.Errorf("failed to parse bulk snapshot: %w", err)
	}

	log.Printf("Bulk store: loaded %d printings from snapshot", len(printings))
	return printings, nil
}
