package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
)

// Error and status messages returned to the game client.
const (
	MsgMissingData      = "缺少必要的数据"
	MsgPlayerExists     = "玩家已存在"
	MsgPlayerCreated    = "玩家创建成功"
	MsgCreateFailed     = "创建玩家失败，请重试"
	MsgScoreRecorded    = "分数记录成功"
	MsgScoreFailed      = "记录分数失败，请重试"
	MsgPlayerNotFound   = "玩家不存在"
	MsgMethodNotAllowed = "Method not allowed"
)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, scoreapi.ErrorResponse{Error: msg})
}
