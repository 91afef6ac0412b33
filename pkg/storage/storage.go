package storage

import (
	"context"
	"errors"
	"time"
)

// ErrPlayerNotFound is returned when a score is recorded for an unknown player.
var ErrPlayerNotFound = errors.New("player not found")

// KV is the client-local key-value store that holds the player profile.
// Get returns "" with a nil error for a missing key.
type KV interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Player is a registered player known to the scoring service.
type Player struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreRecord is one score snapshot submitted by a player.
type ScoreRecord struct {
	Score       int       `json:"score"`
	Items       []string  `json:"items"`
	CompletedAt time.Time `json:"completed_at"`
}

// ScoreStore persists players and their score snapshots for the scoring API.
type ScoreStore interface {
	Ping(ctx context.Context) error
	Close() error

	// CreatePlayer inserts a player. created is false if the id already existed,
	// in which case the stored player is returned unchanged.
	CreatePlayer(ctx context.Context, p Player) (stored *Player, created bool, err error)

	// GetPlayer returns nil if the player doesn't exist.
	GetPlayer(ctx context.Context, id string) (*Player, error)

	// AddScore returns ErrPlayerNotFound for an unknown player.
	AddScore(ctx context.Context, playerID string, rec ScoreRecord) error
	ListScores(ctx context.Context, playerID string) ([]ScoreRecord, error)
}
