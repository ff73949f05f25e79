package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	mu sync.Mutex
	db *sqlx.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Writes are serialized; a single connection keeps sqlite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prefs (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_ts TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY(namespace, key)
		);`,
		`CREATE TABLE IF NOT EXISTS leaderboard (
			rank INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			questions INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			category INTEGER NOT NULL DEFAULT 0,
			difficulty TEXT NOT NULL,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			answered INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			max_streak INTEGER NOT NULL DEFAULT 0,
			finished_ts TEXT NOT NULL
		);`,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetString(ctx context.Context, namespace, key, def string) (string, error) {
	ns, k := strings.TrimSpace(namespace), strings.TrimSpace(key)
	if ns == "" || k == "" {
		return def, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM prefs WHERE namespace = ? AND key = ?`, ns, k)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return value, nil
}

func (s *SQLiteStore) PutString(ctx context.Context, namespace, key, value string) error {
	ns, k := strings.TrimSpace(namespace), strings.TrimSpace(key)
	if ns == "" || k == "" {
		return fmt.Errorf("put pref: empty namespace or key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs(namespace, key, value, updated_ts) VALUES(?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_ts = excluded.updated_ts
	`, ns, k, value, time.Now().UTC().Format(timeLayout))
	return err
}

func (s *SQLiteStore) Namespace(ctx context.Context, namespace string) (map[string]string, error) {
	type row struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM prefs WHERE namespace = ? ORDER BY key`, strings.TrimSpace(namespace)); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

func (s *SQLiteStore) DeleteNamespace(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE namespace = ?`, strings.TrimSpace(namespace))
	return err
}

func (s *SQLiteStore) LoadLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LeaderboardEntry
	if err := s.db.SelectContext(ctx, &out, `
		SELECT rank, name, score, questions, correct
		FROM leaderboard
		ORDER BY rank
	`); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveLeaderboard replaces the whole table; ranks are taken from slice order.
func (s *SQLiteStore) SaveLeaderboard(ctx context.Context, entries []LeaderboardEntry) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM leaderboard`); err != nil {
		return err
	}
	for i, e := range entries {
		row := e
		row.Rank = i + 1
		if _, err = tx.NamedExecContext(ctx, `
			INSERT INTO leaderboard(rank, name, score, questions, correct)
			VALUES(:rank, :name, :score, :questions, :correct)
		`, row); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordSession(ctx context.Context, rec SessionRecord) error {
	finished := rec.FinishedTS
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions(session_id, category, difficulty, mode, score, answered, correct, max_streak, finished_ts)
		VALUES(?,?,?,?,?,?,?,?,?)
	`,
		rec.SessionID,
		rec.Category,
		strings.TrimSpace(rec.Difficulty),
		strings.TrimSpace(rec.Mode),
		max(0, rec.Score),
		max(0, rec.Answered),
		max(0, rec.Correct),
		max(0, rec.MaxStreak),
		finished.UTC().Format(timeLayout),
	)
	return err
}

func (s *SQLiteStore) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	type row struct {
		SessionRecord
		FinishedRaw string `db:"finished_ts"`
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT session_id, category, difficulty, mode, score, answered, correct, max_streak, finished_ts
		FROM quiz_sessions
		ORDER BY id DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, err
	}
	out := make([]SessionRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.SessionRecord
		if t, err := time.Parse(timeLayout, r.FinishedRaw); err == nil {
			rec.FinishedTS = t
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"
