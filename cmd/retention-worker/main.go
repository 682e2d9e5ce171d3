package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ken-william/dreamshare/internal/config"
	"github.com/ken-william/dreamshare/internal/storage/postgres"
)

// RetentionWorker periodically deletes rejected friend requests that are old
// enough that reactivating them no longer makes sense, so a future request
// between the same users starts clean.
type RetentionWorker struct {
	storage   *postgres.Postgres
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

func NewRetentionWorker(storage *postgres.Postgres, interval, retention time.Duration) *RetentionWorker {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &RetentionWorker{
		storage:   storage,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

func (rw *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("Retention worker started",
		"interval", rw.interval.String(),
		"retention", rw.retention.String())

	// Run once immediately on startup
	rw.pruneRejectedRequests()

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Retention worker shutting down")
			return
		case <-ticker.C:
			rw.pruneRejectedRequests()
		}
	}
}

func (rw *RetentionWorker) pruneRejectedRequests() {
	startTime := time.Now()

	rw.logger.Info("Starting rejected request cleanup")

	count, err := rw.storage.PruneRejectedRequests(rw.retention)
	if err != nil {
		rw.logger.Error("Failed to prune rejected requests",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)

	rw.logger.Info("Completed rejected request cleanup",
		"requests_deleted", count,
		"duration_ms", duration.Milliseconds(),
		"duration", duration.String())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// Hourly sweep, 30-day retention
	worker := NewRetentionWorker(storage, time.Hour, 30*24*time.Hour)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the worker
	worker.Start(ctx)

	slog.Info("Retention worker stopped")
}
