package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/storage"
)

type ScoreHandler struct {
	store  storage.ScoreStore
	logger *slog.Logger
}

func NewScoreHandler(store storage.ScoreStore, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		store:  store,
		logger: logger,
	}
}

// ServeHTTP records a score snapshot: POST /api/score
func (h *ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
		return
	}

	var sub scoreapi.ScoreSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Warn("Invalid score request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, MsgMissingData)
		return
	}
	if strings.TrimSpace(sub.PlayerID) == "" {
		writeError(w, h.logger, http.StatusBadRequest, MsgMissingData)
		return
	}
	if sub.Items == nil {
		sub.Items = []string{}
	}

	err := h.store.AddScore(r.Context(), sub.PlayerID, storage.ScoreRecord{
		Score:       sub.Score,
		Items:       sub.Items,
		CompletedAt: time.Now(),
	})
	if errors.Is(err, storage.ErrPlayerNotFound) {
		h.logger.Warn("Score for unknown player", "player_id", sub.PlayerID)
		writeError(w, h.logger, http.StatusNotFound, MsgPlayerNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to record score", "player_id", sub.PlayerID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, MsgScoreFailed)
		return
	}

	h.logger.Debug("Score recorded", "player_id", sub.PlayerID, "score", sub.Score, "items", len(sub.Items))
	writeJSON(w, h.logger, http.StatusOK, scoreapi.MessageResponse{Message: MsgScoreRecorded})
}
