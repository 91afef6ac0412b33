package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/storage"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id         TEXT PRIMARY KEY,
	nickname   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS scores (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id    TEXT NOT NULL REFERENCES players(id),
	score        INTEGER NOT NULL,
	items        TEXT NOT NULL DEFAULT '',
	completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_player_id ON scores(player_id);
`

// SQLiteScoreStore persists players and scores for the scoring API.
type SQLiteScoreStore struct {
	db *sql.DB
}

// Ensure SQLiteScoreStore implements ScoreStore interface
var _ storage.ScoreStore = (*SQLiteScoreStore)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens the database at path, creating the schema if needed.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteScoreStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteScoreStore{db: db}, nil
}

func (s *SQLiteScoreStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteScoreStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteScoreStore) CreatePlayer(ctx context.Context, p storage.Player) (*storage.Player, bool, error) {
	if p.ID == "" {
		return nil, false, fmt.Errorf("player id is required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, nickname, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		p.ID, p.Nickname, toMillis(p.CreatedAt))
	if err != nil {
		return nil, false, fmt.Errorf("insert player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert player: %w", err)
	}

	stored, err := s.GetPlayer(ctx, p.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, n > 0, nil
}

func (s *SQLiteScoreStore) GetPlayer(ctx context.Context, id string) (*storage.Player, error) {
	var (
		p       storage.Player
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nickname, created_at FROM players WHERE id = ?`, id).
		Scan(&p.ID, &p.Nickname, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func (s *SQLiteScoreStore) AddScore(ctx context.Context, playerID string, rec storage.ScoreRecord) error {
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (player_id, score, items, completed_at) VALUES (?, ?, ?, ?)`,
		playerID, rec.Score, strings.Join(rec.Items, ","), toMillis(rec.CompletedAt))
	if isForeignKeyViolation(err) {
		return storage.ErrPlayerNotFound
	}
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *SQLiteScoreStore) ListScores(ctx context.Context, playerID string) ([]storage.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT score, items, completed_at FROM scores WHERE player_id = ? ORDER BY id`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer func() {
		_ = rows.Close() // Ignore error in defer
	}()

	records := []storage.ScoreRecord{}
	for rows.Next() {
		var (
			rec       storage.ScoreRecord
			items     string
			completed int64
		)
		if err := rows.Scan(&rec.Score, &items, &completed); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		rec.Items = []string{}
		if items != "" {
			rec.Items = strings.Split(items, ",")
		}
		rec.CompletedAt = fromMillis(completed)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return records, nil
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
