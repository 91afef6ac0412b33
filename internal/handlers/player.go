package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/storage"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
)

type PlayerHandler struct {
	store  storage.ScoreStore
	logger *slog.Logger
}

func NewPlayerHandler(store storage.ScoreStore, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		store:  store,
		logger: logger,
	}
}

// ServeHTTP handles player requests
// Routes:
// POST /api/player      - Register a player (idempotent)
// GET /api/player/{id}  - Player with recorded scores
func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/player"), "/")

	switch {
	case r.Method == http.MethodPost && id == "":
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && id != "":
		h.handleGet(w, r, id)
	default:
		h.logger.Warn("Method not allowed for player endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	}
}

func (h *PlayerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req scoreapi.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid player request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, MsgMissingData)
		return
	}
	nickname, err := textfilter.CleanNickname(req.Nickname)
	if strings.TrimSpace(req.ID) == "" || err != nil {
		writeError(w, h.logger, http.StatusBadRequest, MsgMissingData)
		return
	}

	player, created, err := h.store.CreatePlayer(r.Context(), storage.Player{
		ID:        req.ID,
		Nickname:  nickname,
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to create player", "player_id", req.ID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, MsgCreateFailed)
		return
	}

	msg := MsgPlayerExists
	if created {
		msg = MsgPlayerCreated
		h.logger.Info("Player created", "player_id", player.ID, "nickname", player.Nickname)
	}
	writeJSON(w, h.logger, http.StatusOK, scoreapi.MessageResponse{
		Message:  msg,
		ID:       player.ID,
		Nickname: player.Nickname,
	})
}

func (h *PlayerHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	player, err := h.store.GetPlayer(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load player", "player_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load player")
		return
	}
	if player == nil {
		writeError(w, h.logger, http.StatusNotFound, MsgPlayerNotFound)
		return
	}

	records, err := h.store.ListScores(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to list scores", "player_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scores")
		return
	}

	resp := scoreapi.PlayerResponse{
		ID:       player.ID,
		Nickname: player.Nickname,
		Scores:   make([]scoreapi.ScoreEntry, 0, len(records)),
	}
	for _, rec := range records {
		resp.Scores = append(resp.Scores, scoreapi.ScoreEntry{
			Score:       rec.Score,
			Items:       strings.Join(rec.Items, ","),
			CompletedAt: rec.CompletedAt.UTC().Format(scoreapi.CompletedAtFormat),
		})
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}
