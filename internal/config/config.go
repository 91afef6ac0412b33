package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	WebPort     string `env:"WEB_PORT" envDefault:"3000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    slog.Level
	LogFile     string `env:"LOG_FILE" envDefault:"relic-hunt.log"` // Console only; the TUI owns stdout

	// Storage
	RedisURL     string `env:"REDIS_URL"`                                      // Profile store; empty selects the YAML file store
	StoragePath  string `env:"STORAGE_PATH" envDefault:".relic-hunt/storage.yaml"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"game.db"`

	// Game
	LocationsSource string        `env:"LOCATIONS_SOURCE" envDefault:"data/locations.txt"` // Path or http(s) URL
	APIBaseURL      string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	APITimeout      time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	AssetsDir       string        `env:"ASSETS_DIR" envDefault:"static"`
	ProgressScale   float64       `env:"PROGRESS_SCALE" envDefault:"1"`

	RawLogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	if cfg.ProgressScale <= 0 {
		return nil, fmt.Errorf("PROGRESS_SCALE must be positive, got %v", cfg.ProgressScale)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
