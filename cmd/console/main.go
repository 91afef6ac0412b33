package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/relic-hunt/internal/config"
	"github.com/jwebster45206/relic-hunt/internal/logger"
	"github.com/jwebster45206/relic-hunt/internal/storage"
	"github.com/jwebster45206/relic-hunt/pkg/game"
	"github.com/jwebster45206/relic-hunt/pkg/location"
	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	kvstore "github.com/jwebster45206/relic-hunt/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", cfg.LogFile, err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.Setup(cfg, logFile)

	kv := storage.NewFileKV(cfg.StoragePath, log)
	defer func() {
		_ = kv.Close()
	}()
	repo := profile.NewRepository(kvstore.Prefixed(kv, "relic-hunt:"))

	client := &http.Client{Timeout: cfg.APITimeout}
	var api scoreapi.API
	if testConnection(client, cfg.APIBaseURL) {
		api = scoreapi.NewClient(cfg.APIBaseURL, client)
	} else {
		log.Warn("Score API unreachable, playing offline", "api", cfg.APIBaseURL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBridge()
	ctrl := game.New(game.Options{
		Source:        location.NewSource(cfg.LocationsSource, client),
		Profiles:      repo,
		API:           api,
		Presenter:     b,
		Prompter:      b,
		Logger:        log,
		ProgressScale: cfg.ProgressScale,
	})

	p := tea.NewProgram(NewConsoleUI(ctx, ctrl, b, repo, api, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	b.attach(p)

	_, runErr := p.Run()

	// Release any action still waiting on the player, then let score
	// pushes land.
	cancel()
	ctrl.Flush()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}
