package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/codyseavey/manabase-builder/backend/internal/api"
	"github.com/codyseavey/manabase-builder/backend/internal/cache"
	"github.com/codyseavey/manabase-builder/backend/internal/database"
	"github.com/codyseavey/manabase-builder/backend/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./manabase.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Bulk snapshot directory
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Per-card disk cache directory
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "./cache"
	}

	// Initialize services
	client := services.NewScryfallClient()
	prices := services.NewPriceRefresher(client, filepath.Join(dataDir, "prices.json"))

	diskStore, err := cache.NewFileStore(cacheDir)
	if err != nil {
		log.Fatalf("Failed to initialize disk cache: %v", err)
	}
	resolver, err := services.NewResolver(client, diskStore, prices)
	if err != nil {
		log.Fatalf("Failed to initialize resolver: %v", err)
	}

	bulkStore, err := services.NewBulkStore(client, dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize bulk store: %v", err)
	}
	index := services.NewIndexService()
	worker := services.NewRefreshWorker(bulkStore, index, prices)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the search index before serving. A failed download is not
	// fatal: search reports unavailable until the next refresh succeeds.
	if err := worker.EnsureBulkData(ctx); err != nil {
		log.Printf("Bulk data unavailable at startup: %v", err)
	} else {
		log.Printf("Card index ready with %d cards", index.Size())
	}

	// Start refresh worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in refresh worker: %v - restarting in 30 seconds", r)
					}
				}()
				worker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Refresh worker restarting after panic recovery...")
			}
		}
	}()

	// Setup router
	router := api.SetupRouter(resolver, index, worker, os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the refresh worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
