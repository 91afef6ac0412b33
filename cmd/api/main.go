package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/relic-hunt/internal/config"
	"github.com/jwebster45206/relic-hunt/internal/handlers"
	"github.com/jwebster45206/relic-hunt/internal/logger"
	"github.com/jwebster45206/relic-hunt/internal/middleware"
	"github.com/jwebster45206/relic-hunt/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg, os.Stdout)

	log.Info("Starting Relic Hunt score API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"database", cfg.DatabasePath)

	store, err := storage.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("Failed to open score database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	log.Info("Score database ready")

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler("relic-hunt-api", map[string]handlers.Pinger{
		"database": store,
	}, log)
	mux.Handle("/health", healthHandler)

	playerHandler := handlers.NewPlayerHandler(store, log)
	mux.Handle("/api/player", playerHandler)
	mux.Handle("/api/player/", playerHandler)

	mux.Handle("/api/score", handlers.NewScoreHandler(store, log))

	handler := middleware.Logger(middleware.Recover(mux))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing score database", "error", err)
	}

	log.Info("Server exited")
}
