package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"applyflow-backend/internal/bootstrap"
	"applyflow-backend/internal/shared/config"
	"applyflow-backend/internal/shared/telemetry"
)

const monitorInterval = 5 * time.Minute

// Standalone queue worker for deployments that keep the API and the pipeline
// in separate processes. Runs the processor plus a periodic health check that
// flags stuck entries.
func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB == nil {
		log.Fatal("worker requires DATABASE_URL; in-memory repositories are not shared across processes")
	}
	defer app.DB.Close()

	if err := app.Processor.Start(ctx); err != nil {
		log.Fatalf("start queue processor: %v", err)
	}
	log.Printf("worker started poll_interval=%s stuck_threshold=%s", cfg.PollInterval, cfg.StuckThreshold)

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("shutdown requested, draining in-flight work")
			app.Processor.Stop()
			return
		case <-ticker.C:
			snapshot, err := app.Monitor.Snapshot(ctx)
			if err != nil {
				telemetry.Error("worker.health_snapshot_failed", map[string]any{"error": err.Error()})
				continue
			}
			if len(snapshot.StuckEntries) > 0 {
				telemetry.Warn("worker.stuck_entries", map[string]any{
					"count":   len(snapshot.StuckEntries),
					"pending": snapshot.Pending,
				})
			}
		}
	}
}
