package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/relic-hunt/pkg/inventory"
	"github.com/jwebster45206/relic-hunt/pkg/storage"
)

// Key is the storage key of the persisted profile.
const Key = "playerInfo"

// TimestampFormat is ISO8601 with milliseconds, as written by browsers.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrNotFound means no profile has been stored yet.
var ErrNotFound = errors.New("player profile not found")

// HistoryEntry records one completed action. History is append-only.
type HistoryEntry struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Time parses the entry timestamp, returning the zero time if it is malformed.
func (h HistoryEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, h.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Profile is the player record kept in the local store.
type Profile struct {
	ID        string               `json:"id"`
	Nickname  string               `json:"nickname"`
	History   []HistoryEntry       `json:"history"`
	Score     int                  `json:"score"` // Snapshot written on save; recomputed from Inventory on load
	Inventory *inventory.Inventory `json:"inventory"`
}

// New creates an empty profile for a freshly registered player.
func New(nickname string) *Profile {
	return &Profile{
		ID:        NewID(),
		Nickname:  nickname,
		History:   []HistoryEntry{},
		Inventory: inventory.New(),
	}
}

// NewID returns a player id in the form player_xxxxxxxxx.
func NewID() string {
	return "player_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
}

// AddHistory appends an entry stamped with now.
func (p *Profile) AddHistory(action string, now time.Time) HistoryEntry {
	entry := HistoryEntry{Action: action, Timestamp: now.UTC().Format(TimestampFormat)}
	p.History = append(p.History, entry)
	return entry
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.History = slices.Clone(p.History)
	c.Inventory = p.Inventory.Clone()
	return &c
}

// Repository loads and saves the profile in a KV store.
type Repository struct {
	kv storage.KV
}

func NewRepository(kv storage.KV) *Repository {
	return &Repository{kv: kv}
}

// Load returns ErrNotFound if no profile is stored.
func (r *Repository) Load(ctx context.Context) (*Profile, error) {
	data, err := r.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if data == "" {
		return nil, ErrNotFound
	}

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("stored profile has no id")
	}
	if p.History == nil {
		p.History = []HistoryEntry{}
	}
	if p.Inventory == nil {
		p.Inventory = inventory.New()
	}
	p.Score = p.Inventory.Score()
	return &p, nil
}

// Save writes the profile with a fresh score snapshot.
func (r *Repository) Save(ctx context.Context, p *Profile) error {
	p.Score = p.Inventory.Score()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := r.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
