package scoreapi

import "strings"

// CompletedAtFormat is the layout of ScoreEntry.CompletedAt on the wire.
const CompletedAtFormat = "2006-01-02T15:04:05.000000"

// CreatePlayerRequest is the body of POST /api/player.
type CreatePlayerRequest struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// MessageResponse is returned by the write endpoints.
type MessageResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// ScoreSubmission is the body of POST /api/score.
type ScoreSubmission struct {
	PlayerID string   `json:"player_id"`
	Score    int      `json:"score"`
	Items    []string `json:"items"`
}

// ScoreEntry is one recorded snapshot. Items are comma-joined.
type ScoreEntry struct {
	Score       int    `json:"score"`
	Items       string `json:"items"`
	CompletedAt string `json:"completed_at"`
}

// ItemList splits Items back into names.
func (e ScoreEntry) ItemList() []string {
	if e.Items == "" {
		return []string{}
	}
	return strings.Split(e.Items, ",")
}

// PlayerResponse is returned by GET /api/player/:id.
type PlayerResponse struct {
	ID       string       `json:"id"`
	Nickname string       `json:"nickname"`
	Scores   []ScoreEntry `json:"scores"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
