package app

import (
	"context"

	"aipocket/internal/devtools"
	"aipocket/internal/quiz"
	"aipocket/internal/state"
)

type Store interface {
	state.Prefs
	quiz.Store
	EnsureSchema(ctx context.Context) error
	DeleteNamespace(ctx context.Context, namespace string) error
	RecentSessions(ctx context.Context, limit int) ([]state.SessionRecord, error)
	Close() error
}

type Chat interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Trivia interface {
	Fetch(ctx context.Context, category int, difficulty string) (quiz.Question, error)
}

type Demo interface {
	Resolve(name string) devtools.Scenario
	SetState(ctx context.Context, dir string, state string, rendered bool) error
}
