package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aipocket/internal/quiz"
	"aipocket/internal/ui"

	"github.com/charmbracelet/x/ansi"
)

var quizItems = []string{"Play", "Leaderboard", "Back"}

func quizMenuRoute() route {
	return list(ui.ScreenQuizMenu, ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenQuizCategory, ui.ScreenQuizLeaderboard},
		fixedCount(len(quizItems)),
		func(a *App, i int, now time.Time) {
			switch i {
			case 0:
				if !a.connected {
					a.flash("WiFi not connected", now)
					return
				}
				a.setScreen(ui.ScreenQuizCategory)
			case 1:
				a.cursors[ui.ScreenQuizLeaderboard] = 0
				a.setScreen(ui.ScreenQuizLeaderboard)
			case 2:
				a.setScreen(ui.ScreenMainMenu)
			}
		},
		func(a *App, _ time.Time) ui.Frame {
			footer := ""
			if board := a.quiz.Leaderboard(); len(board) > 0 {
				footer = fmt.Sprintf("Best %d", board[0].Score)
			}
			return listFrame("TRIVIA", quizItems, a.cursors[ui.ScreenQuizMenu], footer)
		})
}

func quizCategoryRoute() route {
	count := func(a *App) int { return len(a.quiz.Catalog().Categories) }
	return list(ui.ScreenQuizCategory, ui.ScreenQuizMenu, []ui.Screen{ui.ScreenQuizDifficulty}, count,
		func(a *App, i int, _ time.Time) {
			a.quizCategory = a.quiz.Catalog().Categories[i].ID
			a.setScreen(ui.ScreenQuizDifficulty)
		},
		func(a *App, _ time.Time) ui.Frame {
			cats := a.quiz.Catalog().Categories
			items := make([]string, len(cats))
			for i, c := range cats {
				items[i] = c.Name
			}
			return listFrame("CATEGORY", items, a.cursors[ui.ScreenQuizCategory], "")
		})
}

func quizDifficultyRoute() route {
	count := func(a *App) int { return len(a.quiz.Catalog().Difficulties) }
	return list(ui.ScreenQuizDifficulty, ui.ScreenQuizCategory, []ui.Screen{ui.ScreenQuizMode}, count,
		func(a *App, i int, _ time.Time) {
			a.quizDifficulty = a.quiz.Catalog().Difficulties[i].Key
			a.setScreen(ui.ScreenQuizMode)
		},
		func(a *App, _ time.Time) ui.Frame {
			diffs := a.quiz.Catalog().Difficulties
			items := make([]string, len(diffs))
			for i, d := range diffs {
				items[i] = fmt.Sprintf("%-8s %2ds x%d", d.Label, d.Seconds, d.BasePoints)
			}
			return listFrame("DIFFICULTY", items, a.cursors[ui.ScreenQuizDifficulty], "")
		})
}

func quizModeRoute() route {
	count := func(a *App) int { return len(a.quiz.Catalog().Modes) }
	return list(ui.ScreenQuizMode, ui.ScreenQuizDifficulty, []ui.Screen{ui.ScreenQuizLoading}, count,
		func(a *App, i int, _ time.Time) {
			a.quizMode = a.quiz.Catalog().Modes[i].Key
			a.fetchQuestion()
		},
		func(a *App, _ time.Time) ui.Frame {
			modes := a.quiz.Catalog().Modes
			items := make([]string, len(modes))
			for i, m := range modes {
				items[i] = m.Label
			}
			return listFrame("MODE", items, a.cursors[ui.ScreenQuizMode], "")
		})
}

// fetchQuestion loads the next question. The session itself starts only
// once the first question has arrived.
func (a *App) fetchQuestion() {
	category, difficulty := a.quizCategory, a.quizDifficulty
	a.spawn(taskTrivia, ui.ScreenQuizLoading, "Loading question", ui.ScreenQuizMenu, func(ctx context.Context) (any, error) {
		return a.trivia.Fetch(ctx, category, difficulty)
	})
}

func (a *App) onQuestion(c completion, now time.Time) {
	if c.err != nil {
		a.logger.Warn("quiz.fetch_failed", map[string]any{"category": a.quizCategory, "difficulty": a.quizDifficulty, "error": c.err.Error()})
		a.flash(triviaFailureText(c.err), now)
		a.endQuiz(now)
		return
	}
	q, _ := c.value.(quiz.Question)
	if !a.quiz.Active() {
		if _, err := a.quiz.StartSession(a.quizCategory, a.quizDifficulty, a.quizMode, now); err != nil {
			a.logger.Error("quiz.start_failed", map[string]any{"error": err.Error()})
			a.flash("Quiz error", now)
			a.setScreen(ui.ScreenQuizMenu)
			return
		}
	}
	if err := a.quiz.Begin(q, now); err != nil {
		a.logger.Warn("quiz.bad_question", map[string]any{"error": err.Error()})
		a.flash("Parse error", now)
		a.endQuiz(now)
		return
	}
	a.cursors[ui.ScreenQuizPlaying] = 0
	a.setScreen(ui.ScreenQuizPlaying)
}

func triviaFailureText(err error) string {
	var se *quiz.StatusError
	var ae *quiz.APIError
	switch {
	case errors.As(err, &se):
		return se.Error()
	case errors.As(err, &ae):
		return "No questions"
	case errors.Is(err, quiz.ErrNoResults):
		return "No questions"
	case errors.Is(err, quiz.ErrParse):
		return "Parse error"
	case cancelled(err):
		return "Cancelled"
	default:
		return "Network error"
	}
}

// endQuiz leaves the quiz flow for the quiz menu. A session with answers
// is still scored, an empty one is dropped.
func (a *App) endQuiz(now time.Time) {
	s, ok := a.quiz.Session()
	if ok && s.Answered == 0 {
		a.quiz.Discard()
		ok = false
	}
	if ok {
		a.finishQuiz(now, ui.ScreenQuizMenu)
		return
	}
	a.setScreen(ui.ScreenQuizMenu)
}

func (a *App) finishQuiz(now time.Time, dest ui.Screen) {
	s, ok := a.quiz.Session()
	if !ok {
		a.setScreen(ui.ScreenQuizMenu)
		return
	}
	a.lastSession = s
	update, err := a.quiz.FinalizeSession(a.baseCtx, a.peers.Nickname(), now)
	if err != nil {
		a.logger.Error("quiz.finalize_failed", map[string]any{"error": err.Error()})
		a.flash("Save failed", now)
	}
	a.lastUpdate = update
	a.setScreen(dest)
}

func quizLoadingRoute() route {
	r := fixed(ui.ScreenQuizMenu, []ui.Screen{ui.ScreenQuizPlaying}, renderLoading)
	r.on[ui.ButtonBack] = func(a *App, now time.Time) {
		a.cancelTask()
		a.flash("Cancelled", now)
		a.endQuiz(now)
	}
	return r
}

func quizPlayingRoute() route {
	r := fixed(ui.ScreenQuizMenu, []ui.Screen{ui.ScreenQuizResult}, renderQuestion)
	count := func(a *App) int {
		s, _ := a.quiz.Session()
		return len(s.Question.Choices)
	}
	r.on[ui.ButtonUp] = func(a *App, _ time.Time) { a.moveCursor(ui.ScreenQuizPlaying, -1, count(a)) }
	r.on[ui.ButtonDown] = func(a *App, _ time.Time) { a.moveCursor(ui.ScreenQuizPlaying, 1, count(a)) }
	r.on[ui.ButtonOK] = func(a *App, now time.Time) {
		o, err := a.quiz.SubmitAnswer(a.cursors[ui.ScreenQuizPlaying], now)
		if err != nil {
			a.logger.Warn("quiz.submit_failed", map[string]any{"error": err.Error()})
			return
		}
		a.showOutcome(o)
	}
	r.on[ui.ButtonBack] = func(a *App, now time.Time) {
		o, err := a.quiz.Abandon(now)
		if err != nil {
			a.logger.Warn("quiz.abandon_failed", map[string]any{"error": err.Error()})
			return
		}
		a.showOutcome(o)
	}
	return r
}

func (a *App) showOutcome(o quiz.Outcome) {
	a.lastOutcome = o
	a.setScreen(ui.ScreenQuizResult)
}

func renderQuestion(a *App, now time.Time) ui.Frame {
	s, ok := a.quiz.Session()
	if !ok {
		return textFrame("TRIVIA", "No question")
	}
	remaining := a.quiz.Remaining(now)
	title := fmt.Sprintf("Q%d %ds", s.Answered+1, int((remaining + time.Second - 1) / time.Second))
	prompt := strings.Split(ansi.Wrap(s.Question.Prompt, ui.DisplayCols, " "), "\n")
	maxPrompt := ui.DisplayRows - 1 - len(s.Question.Choices)
	if len(prompt) > maxPrompt {
		prompt = prompt[:maxPrompt]
	}
	lines := append([]string(nil), prompt...)
	for i, choice := range s.Question.Choices {
		lines = append(lines, fmt.Sprintf("%c) %s", 'A'+i, choice))
	}
	return ui.Frame{
		Title:    title,
		Lines:    lines,
		Selected: len(prompt) + a.cursors[ui.ScreenQuizPlaying],
		Footer:   fmt.Sprintf("Score %d x%d", s.Score, s.Streak),
	}
}

func quizResultRoute() route {
	r := fixed(ui.ScreenQuizGameOver, []ui.Screen{ui.ScreenQuizLoading}, renderOutcome)
	r.on[ui.ButtonOK] = func(a *App, now time.Time) {
		if a.quiz.Over() {
			a.finishQuiz(now, ui.ScreenQuizGameOver)
			return
		}
		a.fetchQuestion()
	}
	r.on[ui.ButtonBack] = func(a *App, now time.Time) { a.finishQuiz(now, ui.ScreenQuizGameOver) }
	return r
}

func renderOutcome(a *App, _ time.Time) ui.Frame {
	o := a.lastOutcome
	s, _ := a.quiz.Session()
	headline := "Wrong!"
	switch {
	case o.Correct:
		headline = fmt.Sprintf("Correct! +%d", o.Points)
	case o.TimedOut:
		headline = "Time up!"
	case o.Abandoned:
		headline = "Skipped"
	}
	answer := ""
	if o.CorrectIndex >= 0 && o.CorrectIndex < len(s.Question.Choices) {
		answer = s.Question.Choices[o.CorrectIndex]
	}
	progress := fmt.Sprintf("Q %d", s.Answered)
	if t := s.Target(); t > 0 {
		progress = fmt.Sprintf("Q %d/%d", s.Answered, t)
	}
	footer := "OK next"
	if o.Over {
		footer = "OK results"
	}
	f := textFrame("RESULT", headline, "Answer:", answer, fmt.Sprintf("Score %d", s.Score), fmt.Sprintf("Streak %d", s.Streak), progress)
	f.Footer = footer
	return f
}

func gameOverRoute() route {
	r := fixed(ui.ScreenQuizMenu, []ui.Screen{ui.ScreenQuizLeaderboard}, renderGameOver)
	r.on[ui.ButtonOK] = func(a *App, _ time.Time) {
		a.cursors[ui.ScreenQuizLeaderboard] = max(a.lastUpdate.Rank-1, 0)
		a.setScreen(ui.ScreenQuizLeaderboard)
	}
	return r
}

func renderGameOver(a *App, _ time.Time) ui.Frame {
	s := a.lastSession
	lines := []string{
		fmt.Sprintf("Score %d", s.Score),
		fmt.Sprintf("Correct %d/%d", s.Correct, s.Answered),
		fmt.Sprintf("Best streak %d", s.MaxStreak),
	}
	if a.lastUpdate.Qualified {
		lines = append(lines, "", fmt.Sprintf("NEW HIGH SCORE #%d", a.lastUpdate.Rank))
	}
	f := textFrame("GAME OVER", lines...)
	f.Footer = "OK scores"
	return f
}

func leaderboardRoute() route {
	count := func(a *App) int { return len(a.quiz.Leaderboard()) }
	return list(ui.ScreenQuizLeaderboard, ui.ScreenQuizMenu, nil, count,
		func(a *App, _ int, _ time.Time) { a.setScreen(ui.ScreenQuizMenu) },
		func(a *App, _ time.Time) ui.Frame {
			entries := a.quiz.Leaderboard()
			items := make([]string, len(entries))
			for i, e := range entries {
				items[i] = fmt.Sprintf("%d %-10.10s %5d", i+1, e.Name, e.Score)
			}
			f := listFrame("TOP SCORES", items, a.cursors[ui.ScreenQuizLeaderboard], "")
			if len(entries) == 0 {
				f.Lines = []string{"No scores yet"}
			}
			return f
		})
}
