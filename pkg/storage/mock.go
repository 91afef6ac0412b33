package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// MockKV is an in-memory KV for tests.
type MockKV struct {
	mu        sync.RWMutex
	values    map[string]string
	pingError error
	setError  error
	sets      int
}

// Ensure MockKV implements KV interface
var _ KV = (*MockKV)(nil)

// NewMockKV creates a new in-memory KV
func NewMockKV() *MockKV {
	return &MockKV{values: make(map[string]string)}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockKV) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSetError configures the mock to fail every Set with the given error
func (m *MockKV) SetSetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setError = err
}

func (m *MockKV) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockKV) Close() error {
	return nil
}

func (m *MockKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setError != nil {
		return m.setError
	}
	m.values[key] = value
	m.sets++
	return nil
}

// Sets returns how many successful writes the mock has seen.
func (m *MockKV) Sets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}

// MockScoreStore is an in-memory ScoreStore for tests.
type MockScoreStore struct {
	mu        sync.RWMutex
	players   map[string]Player
	scores    map[string][]ScoreRecord
	pingError error
}

// Ensure MockScoreStore implements ScoreStore interface
var _ ScoreStore = (*MockScoreStore)(nil)

// NewMockScoreStore creates a new in-memory score store
func NewMockScoreStore() *MockScoreStore {
	return &MockScoreStore{
		players: make(map[string]Player),
		scores:  make(map[string][]ScoreRecord),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockScoreStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockScoreStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockScoreStore) Close() error {
	return nil
}

func (m *MockScoreStore) CreatePlayer(ctx context.Context, p Player) (*Player, bool, error) {
	if p.ID == "" {
		return nil, false, errors.New("player id cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.players[p.ID]; ok {
		return &existing, false, nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.players[p.ID] = p
	return &p, true, nil
}

func (m *MockScoreStore) GetPlayer(ctx context.Context, id string) (*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockScoreStore) AddScore(ctx context.Context, playerID string, rec ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[playerID]; !ok {
		return ErrPlayerNotFound
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	rec.Items = slices.Clone(rec.Items)
	m.scores[playerID] = append(m.scores[playerID], rec)
	return nil
}

func (m *MockScoreStore) ListScores(ctx context.Context, playerID string) ([]ScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.scores[playerID]), nil
}
