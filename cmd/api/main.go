package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"applyflow-backend/internal/bootstrap"
	"applyflow-backend/internal/shared/config"
	"applyflow-backend/internal/shared/server"
	"applyflow-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		defer app.DB.Close()
	}

	if err := app.Processor.Start(ctx); err != nil {
		log.Fatalf("start queue processor: %v", err)
	}
	defer app.Processor.Stop()

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
