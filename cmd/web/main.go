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
	"github.com/jwebster45206/relic-hunt/internal/logger"
	"github.com/jwebster45206/relic-hunt/internal/middleware"
	"github.com/jwebster45206/relic-hunt/internal/storage"
	"github.com/jwebster45206/relic-hunt/internal/web"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	kvstore "github.com/jwebster45206/relic-hunt/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg, os.Stdout)

	log.Info("Starting Relic Hunt web server",
		"port", cfg.WebPort,
		"environment", cfg.Environment,
		"locations", cfg.LocationsSource,
		"api", cfg.APIBaseURL)

	var kv kvstore.KV
	if cfg.RedisURL != "" {
		rkv, err := storage.NewRedisKV(cfg.RedisURL, log)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err, "redis_url", cfg.RedisURL)
			os.Exit(1)
		}
		kv = rkv
		log.Info("Profiles stored in Redis")
	} else {
		kv = storage.NewFileKV(cfg.StoragePath, log)
		log.Info("Profiles stored on disk", "path", cfg.StoragePath)
	}

	client := &http.Client{Timeout: cfg.APITimeout}
	srv := web.NewServer(web.Options{
		KV:            kv,
		API:           scoreapi.NewClient(cfg.APIBaseURL, client),
		Source:        location.NewSource(cfg.LocationsSource, client),
		Logger:        log,
		AssetsDir:     cfg.AssetsDir,
		ProgressScale: cfg.ProgressScale,
	})

	server := &http.Server{
		Addr:         ":" + cfg.WebPort,
		Handler:      middleware.Logger(middleware.Recover(srv)),
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Abandon in-flight actions and let pending score pushes finish.
	srv.Close()

	if err := kv.Close(); err != nil {
		log.Error("Error closing profile storage", "error", err)
	}

	log.Info("Server exited")
}
