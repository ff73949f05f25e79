package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"aipocket/internal/state"
	"aipocket/internal/telemetry"
)

var (
	ErrNoSession     = errors.New("no active quiz session")
	ErrNotAwaiting   = errors.New("no question awaiting an answer")
	ErrBadChoice     = errors.New("choice out of range")
	ErrUnknownOption = errors.New("unknown quiz option")
)

type Phase int

const (
	PhaseReady Phase = iota
	PhaseAwaiting
	PhaseAnswered
)

type Outcome struct {
	Correct      bool
	TimedOut     bool
	Abandoned    bool
	Choice       int
	CorrectIndex int
	Points       int
	Streak       int
	Over         bool
}

type Session struct {
	ID         string
	Category   int
	Difficulty Difficulty
	Mode       Mode
	StartedAt  time.Time

	Question Question
	Deadline time.Time
	Phase    Phase

	Answered  int
	Correct   int
	Wrong     int
	Score     int
	Streak    int
	MaxStreak int
	Ended     bool
	Last      Outcome
}

func (s Session) Target() int { return s.Mode.Questions }

type LeaderboardUpdate struct {
	Qualified bool
	Rank      int
	Entry     Entry
	Entries   []Entry
}

// Engine owns at most one session. It is driven from the controller loop
// and is not safe for concurrent use.
type Engine struct {
	catalog Catalog
	store   Store
	logger  *telemetry.Logger
	board   *Leaderboard
	session *Session
}

func NewEngine(catalog Catalog, store Store, logger *telemetry.Logger) *Engine {
	return &Engine{catalog: catalog, store: store, logger: logger, board: NewLeaderboard(nil)}
}

func (e *Engine) Load(ctx context.Context) error {
	board, err := LoadLeaderboard(ctx, e.store)
	e.board = board
	return err
}

func (e *Engine) Catalog() Catalog { return e.catalog }

func (e *Engine) Leaderboard() []Entry { return e.board.Entries() }

func (e *Engine) StartSession(category int, difficulty, mode string, now time.Time) (*Session, error) {
	d, ok := e.catalog.Difficulty(difficulty)
	if !ok {
		return nil, fmt.Errorf("%w: difficulty %q", ErrUnknownOption, difficulty)
	}
	m, ok := e.catalog.Mode(mode)
	if !ok {
		return nil, fmt.Errorf("%w: mode %q", ErrUnknownOption, mode)
	}
	e.session = &Session{
		ID:         uuid.NewString(),
		Category:   category,
		Difficulty: d,
		Mode:       m,
		StartedAt:  now,
	}
	e.logger.Info("quiz.session_start", map[string]any{
		"session": e.session.ID, "category": category, "difficulty": d.Key, "mode": m.Key,
	})
	return e.session, nil
}

func (e *Engine) Active() bool { return e.session != nil }

func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Begin presents q and arms its deadline.
func (e *Engine) Begin(q Question, now time.Time) error {
	s := e.session
	if s == nil {
		return ErrNoSession
	}
	if s.Ended {
		return fmt.Errorf("session %s already over", s.ID)
	}
	if len(q.Choices) == 0 || q.Correct < 0 || q.Correct >= len(q.Choices) {
		return fmt.Errorf("%w: question has no valid answer", ErrParse)
	}
	s.Question = q
	s.Deadline = now.Add(s.Difficulty.TimeLimit())
	s.Phase = PhaseAwaiting
	return nil
}

func (e *Engine) Remaining(now time.Time) time.Duration {
	if e.session == nil || e.session.Phase != PhaseAwaiting {
		return 0
	}
	if r := e.session.Deadline.Sub(now); r > 0 {
		return r
	}
	return 0
}

// SubmitAnswer scores choice. An answer at or past the deadline counts as
// a timeout.
func (e *Engine) SubmitAnswer(choice int, now time.Time) (Outcome, error) {
	s := e.session
	if s == nil {
		return Outcome{}, ErrNoSession
	}
	if s.Phase != PhaseAwaiting {
		return Outcome{}, ErrNotAwaiting
	}
	if choice < 0 || choice >= len(s.Question.Choices) {
		return Outcome{}, ErrBadChoice
	}
	if !now.Before(s.Deadline) {
		return e.miss(Outcome{Choice: -1, TimedOut: true}), nil
	}
	if choice != s.Question.Correct {
		return e.miss(Outcome{Choice: choice}), nil
	}
	s.Streak++
	if s.Streak > s.MaxStreak {
		s.MaxStreak = s.Streak
	}
	total := s.Difficulty.TimeLimit()
	pts := Points(s.Difficulty.BasePoints, s.Deadline.Sub(now), total, s.Streak)
	s.Score += pts
	s.Correct++
	return e.advance(Outcome{Correct: true, Choice: choice, Points: pts, Streak: s.Streak}), nil
}

// OnDeadlineElapsed records a timeout once the deadline has passed.
func (e *Engine) OnDeadlineElapsed(now time.Time) (Outcome, bool) {
	s := e.session
	if s == nil || s.Phase != PhaseAwaiting || now.Before(s.Deadline) {
		return Outcome{}, false
	}
	return e.miss(Outcome{Choice: -1, TimedOut: true}), true
}

// Abandon scores the pending question as wrong and moves on.
func (e *Engine) Abandon(now time.Time) (Outcome, error) {
	s := e.session
	if s == nil {
		return Outcome{}, ErrNoSession
	}
	if s.Phase != PhaseAwaiting {
		return Outcome{}, ErrNotAwaiting
	}
	return e.miss(Outcome{Choice: -1, Abandoned: true}), nil
}

func (e *Engine) miss(o Outcome) Outcome {
	s := e.session
	s.Streak = 0
	s.Wrong++
	o.Streak = 0
	return e.advance(o)
}

func (e *Engine) advance(o Outcome) Outcome {
	s := e.session
	s.Answered++
	s.Phase = PhaseAnswered
	o.CorrectIndex = s.Question.Correct
	switch {
	case s.Mode.Unbounded():
		s.Ended = !o.Correct
	default:
		s.Ended = s.Answered >= s.Mode.Questions
	}
	o.Over = s.Ended
	s.Last = o
	return o
}

// Over reports whether the session has no further questions.
func (e *Engine) Over() bool {
	return e.session != nil && e.session.Ended
}

// FinalizeSession applies the session to the leaderboard, persists it and
// clears the session.
func (e *Engine) FinalizeSession(ctx context.Context, name string, now time.Time) (LeaderboardUpdate, error) {
	s := e.session
	if s == nil {
		return LeaderboardUpdate{}, ErrNoSession
	}
	e.session = nil

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}
	entry := Entry{Name: name, Score: s.Score, Questions: s.Answered, Correct: s.Correct}
	rank, ok := e.board.Insert(entry)
	update := LeaderboardUpdate{Qualified: ok, Rank: rank, Entry: entry, Entries: e.board.Entries()}

	var errs []error
	if ok {
		if err := e.board.Save(ctx, e.store); err != nil {
			errs = append(errs, fmt.Errorf("save leaderboard: %w", err))
		}
	}
	if e.store != nil {
		if err := e.store.RecordSession(ctx, state.SessionRecord{
			SessionID:  s.ID,
			Category:   s.Category,
			Difficulty: s.Difficulty.Key,
			Mode:       s.Mode.Key,
			Score:      s.Score,
			Answered:   s.Answered,
			Correct:    s.Correct,
			MaxStreak:  s.MaxStreak,
			FinishedTS: now,
		}); err != nil {
			errs = append(errs, fmt.Errorf("record session: %w", err))
		}
	}
	e.logger.Info("quiz.session_end", map[string]any{
		"session": s.ID, "score": s.Score, "answered": s.Answered, "qualified": ok, "rank": rank,
	})
	return update, errors.Join(errs...)
}

// Discard drops the session without touching the leaderboard.
func (e *Engine) Discard() {
	e.session = nil
}
