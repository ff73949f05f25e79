package state

import (
	"context"
	"time"
)

// Namespaces used by the device. Keys inside a namespace are flat strings.
const (
	NamespaceConfig = "app-config"
	NamespaceMusic  = "music"
	NamespaceFM     = "fm"
	NamespaceQuiz   = "quiz"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	GetString(ctx context.Context, namespace, key, def string) (string, error)
	PutString(ctx context.Context, namespace, key, value string) error
	Namespace(ctx context.Context, namespace string) (map[string]string, error)
	DeleteNamespace(ctx context.Context, namespace string) error
	LoadLeaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	SaveLeaderboard(ctx context.Context, entries []LeaderboardEntry) error
	RecordSession(ctx context.Context, rec SessionRecord) error
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	Close() error
}

// Prefs is the subset of Store that most subsystems need.
type Prefs interface {
	GetString(ctx context.Context, namespace, key, def string) (string, error)
	PutString(ctx context.Context, namespace, key, value string) error
}

type LeaderboardEntry struct {
	Rank      int    `db:"rank"`
	Name      string `db:"name"`
	Score     int    `db:"score"`
	Questions int    `db:"questions"`
	Correct   int    `db:"correct"`
}

type SessionRecord struct {
	SessionID  string    `db:"session_id"`
	Category   int       `db:"category"`
	Difficulty string    `db:"difficulty"`
	Mode       string    `db:"mode"`
	Score      int       `db:"score"`
	Answered   int       `db:"answered"`
	Correct    int       `db:"correct"`
	MaxStreak  int       `db:"max_streak"`
	FinishedTS time.Time `db:"-"`
}
