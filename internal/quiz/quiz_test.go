package quiz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"aipocket/internal/state"
)

var t0 = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Categories) != 12 || c.Categories[0].ID != 0 {
		t.Fatalf("expected 12 categories starting with random, got %+v", c.Categories)
	}
	easy, ok := c.Difficulty("easy")
	if !ok || easy.BasePoints != 10 || easy.TimeLimit() != 30*time.Second {
		t.Fatalf("unexpected easy difficulty %+v", easy)
	}
	survival, ok := c.Mode("survival")
	if !ok || !survival.Unbounded() {
		t.Fatalf("expected unbounded survival mode, got %+v", survival)
	}
	if c.CategoryName(18) != "Computers" {
		t.Fatalf("expected Computers, got %q", c.CategoryName(18))
	}
}

func TestParseCatalogRejectsIncomplete(t *testing.T) {
	if _, err := ParseCatalog([]byte("kind: quiz_catalog\ncategories: []\n")); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("missing file should fall back to default: %v", err)
	}
}

func TestScoringTables(t *testing.T) {
	total := 10 * time.Second
	cases := []struct {
		remaining time.Duration
		want      int
	}{
		{10 * time.Second, 150},
		{7100 * time.Millisecond, 150},
		{7 * time.Second, 125},
		{5 * time.Second, 110},
		{3100 * time.Millisecond, 110},
		{3 * time.Second, 100},
		{0, 100},
	}
	for _, tc := range cases {
		if got := TimeBonusPct(tc.remaining, total); got != tc.want {
			t.Fatalf("remaining %v: expected %d, got %d", tc.remaining, tc.want, got)
		}
	}
	// Just above each threshold by half a percent of a 30s question.
	easy := 30 * time.Second
	fractional := []struct {
		remaining time.Duration
		want      int
	}{
		{21150 * time.Millisecond, 150},
		{21 * time.Second, 125},
		{15150 * time.Millisecond, 125},
		{15 * time.Second, 110},
		{9150 * time.Millisecond, 110},
		{9 * time.Second, 100},
	}
	for _, tc := range fractional {
		if got := TimeBonusPct(tc.remaining, easy); got != tc.want {
			t.Fatalf("remaining %v of %v: expected %d, got %d", tc.remaining, easy, tc.want, got)
		}
	}
	if got := Points(10, 21150*time.Millisecond, easy, 1); got != 15 {
		t.Fatalf("expected 15 points at 70.5%% remaining, got %d", got)
	}
	streaks := map[int]int{0: 100, 2: 100, 3: 150, 4: 150, 5: 200, 9: 200, 10: 300, 25: 300}
	for s, want := range streaks {
		if got := StreakBonusPct(s); got != want {
			t.Fatalf("streak %d: expected %d, got %d", s, want, got)
		}
	}
}

func newEngine(t *testing.T) (*Engine, *state.SQLiteStore) {
	t.Helper()
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	e := NewEngine(DefaultCatalog(), store, nil)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e, store
}

func question(correct int) Question {
	return Question{Kind: KindMultiple, Prompt: "?", Choices: []string{"a", "b", "c", "d"}, Correct: correct}
}

func TestQuickEasyFirstAnswerScoresFifteen(t *testing.T) {
	e, _ := newEngine(t)
	if _, err := e.StartSession(9, "easy", "quick", t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Begin(question(2), t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	// 24s of 30s left is 80%.
	out, err := e.SubmitAnswer(2, t0.Add(6*time.Second))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Correct || out.Points != 15 || out.Streak != 1 {
		t.Fatalf("expected +15 at streak 1, got %+v", out)
	}
	s, _ := e.Session()
	if s.Score != 15 {
		t.Fatalf("expected score 15, got %d", s.Score)
	}
}

func TestHardFifthStreakAtFortyPercent(t *testing.T) {
	e, _ := newEngine(t)
	if _, err := e.StartSession(0, "hard", "classic", t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	now := t0
	for i := 0; i < 4; i++ {
		_ = e.Begin(question(0), now)
		if _, err := e.SubmitAnswer(0, now.Add(time.Second)); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		now = now.Add(time.Minute)
	}
	before, _ := e.Session()
	_ = e.Begin(question(1), now)
	// 6s of 15s left is 40%.
	out, _ := e.SubmitAnswer(1, now.Add(9*time.Second))
	if out.Streak != 5 || out.Points != 66 {
		t.Fatalf("expected +66 at streak 5, got %+v", out)
	}
	after, _ := e.Session()
	if after.Score-before.Score != 66 {
		t.Fatalf("expected score to grow by 66, got %d", after.Score-before.Score)
	}
}

func TestWrongTimeoutAndAbandonResetStreak(t *testing.T) {
	e, _ := newEngine(t)
	_, _ = e.StartSession(0, "medium", "marathon", t0)

	_ = e.Begin(question(0), t0)
	_, _ = e.SubmitAnswer(0, t0.Add(time.Second))
	score, _ := e.Session()

	_ = e.Begin(question(0), t0)
	out, _ := e.SubmitAnswer(3, t0.Add(time.Second))
	if out.Correct || out.Streak != 0 || out.CorrectIndex != 0 {
		t.Fatalf("expected wrong answer outcome, got %+v", out)
	}

	_ = e.Begin(question(0), t0)
	if _, ok := e.OnDeadlineElapsed(t0.Add(19 * time.Second)); ok {
		t.Fatalf("deadline must not fire early")
	}
	out, ok := e.OnDeadlineElapsed(t0.Add(20 * time.Second))
	if !ok || !out.TimedOut {
		t.Fatalf("expected timeout, got %+v %v", out, ok)
	}

	_ = e.Begin(question(0), t0)
	// Late answers count as timeouts even when correct.
	out, _ = e.SubmitAnswer(0, t0.Add(25*time.Second))
	if !out.TimedOut || out.Points != 0 {
		t.Fatalf("expected late answer to time out, got %+v", out)
	}

	_ = e.Begin(question(0), t0)
	out, err := e.Abandon(t0)
	if err != nil || !out.Abandoned {
		t.Fatalf("expected abandon outcome, got %+v %v", out, err)
	}

	s, _ := e.Session()
	if s.Score != score.Score || s.Streak != 0 || s.Answered != 5 || s.Wrong != 4 {
		t.Fatalf("unexpected counters after misses: %+v", s)
	}
	if _, err := e.SubmitAnswer(0, t0); !errors.Is(err, ErrNotAwaiting) {
		t.Fatalf("expected ErrNotAwaiting, got %v", err)
	}
}

func TestModeLimits(t *testing.T) {
	e, _ := newEngine(t)
	_, _ = e.StartSession(0, "easy", "quick", t0)
	for i := 0; i < 5; i++ {
		_ = e.Begin(question(0), t0)
		out, _ := e.SubmitAnswer(1, t0)
		if out.Over != (i == 4) {
			t.Fatalf("question %d: expected over=%v", i, i == 4)
		}
	}
	if err := e.Begin(question(0), t0); err == nil {
		t.Fatalf("expected begin after session end to fail")
	}

	_, _ = e.StartSession(0, "easy", "survival", t0)
	for i := 0; i < 12; i++ {
		_ = e.Begin(question(0), t0)
		if out, _ := e.SubmitAnswer(0, t0); out.Over {
			t.Fatalf("survival ended on a correct answer")
		}
	}
	_ = e.Begin(question(0), t0)
	if out, _ := e.SubmitAnswer(1, t0); !out.Over {
		t.Fatalf("expected survival to end on first miss")
	}
}

func TestLeaderboardQualifyInsertAndPersist(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()
	scores := []int{50, 80, 20, 80, 60, 10, 70}
	for i, sc := range scores {
		_, _ = e.StartSession(0, "easy", "quick", t0)
		e.session.Score = sc
		e.session.Answered = 5
		up, err := e.FinalizeSession(ctx, string(rune('a'+i)), t0)
		if err != nil {
			t.Fatalf("finalize %d: %v", i, err)
		}
		entries := up.Entries
		if len(entries) > LeaderboardSize {
			t.Fatalf("leaderboard exceeded size: %d", len(entries))
		}
		for j := 1; j < len(entries); j++ {
			if entries[j-1].Score < entries[j].Score {
				t.Fatalf("leaderboard not sorted: %+v", entries)
			}
		}
	}
	got := e.Leaderboard()
	wantScores := []int{80, 80, 70, 60, 50}
	wantNames := []string{"b", "d", "g", "e", "a"}
	for i := range wantScores {
		if got[i].Score != wantScores[i] || got[i].Name != wantNames[i] {
			t.Fatalf("rank %d: expected %s/%d, got %+v", i+1, wantNames[i], wantScores[i], got[i])
		}
	}
	if e.Active() {
		t.Fatalf("expected no session after finalize")
	}

	// Persisted table reloads identically.
	reloaded, err := LoadLeaderboard(ctx, store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	again := reloaded.Entries()
	for i := range got {
		if again[i] != got[i] {
			t.Fatalf("rank %d: expected %+v, got %+v", i+1, got[i], again[i])
		}
	}
	sessions, _ := store.RecentSessions(ctx, 20)
	if len(sessions) != len(scores) {
		t.Fatalf("expected %d recorded sessions, got %d", len(scores), len(sessions))
	}
}

func TestLeaderboardTieDoesNotDisplaceBottom(t *testing.T) {
	lb := NewLeaderboard([]Entry{{Score: 50}, {Score: 40}, {Score: 30}, {Score: 20}, {Score: 10}})
	if lb.Qualifies(10) {
		t.Fatalf("tie with bottom must not qualify")
	}
	if lb.Qualifies(0) {
		t.Fatalf("zero must not qualify")
	}
	rank, ok := lb.Insert(Entry{Name: "x", Score: 40})
	if !ok || rank != 3 {
		t.Fatalf("expected rank 3 below the existing 40, got %d %v", rank, ok)
	}
}

func TestBuildChoices(t *testing.T) {
	fixed := func(n int) func(int) int { return func(int) int { return n } }
	choices, idx, err := BuildChoices(fixed(0), KindBoolean, "False", []string{"True"})
	if err != nil || idx != 1 || len(choices) != 2 || choices[0] != "True" {
		t.Fatalf("unexpected boolean layout %v %d %v", choices, idx, err)
	}
	for pos := 0; pos <= 3; pos++ {
		choices, idx, err := BuildChoices(fixed(pos), KindMultiple, "ok", []string{"x", "y", "z"})
		if err != nil {
			t.Fatalf("pos %d: %v", pos, err)
		}
		if idx != pos || choices[pos] != "ok" || len(choices) != 4 {
			t.Fatalf("pos %d: got %v idx %d", pos, choices, idx)
		}
	}
	if _, _, err := BuildChoices(fixed(0), KindMultiple, "ok", nil); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse without incorrect answers, got %v", err)
	}
}

func TestFetchDecodesAndQueries(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"category":"Science: Computers","difficulty":"hard","type":"multiple","question":"What does &quot;CPU&quot; stand for?","correct_answer":"Central Processing Unit","incorrect_answers":["Core &amp; Power Unit","Central Power Unit","Computer Personal Unit"]}]}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	f.IntN = func(int) int { return 1 }
	q, err := f.Fetch(context.Background(), 18, "hard")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "amount=1&category=18&difficulty=hard" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if q.Prompt != `What does "CPU" stand for?` {
		t.Fatalf("expected decoded prompt, got %q", q.Prompt)
	}
	if q.Correct != 1 || q.Choices[1] != "Central Processing Unit" || q.Choices[0] != "Core & Power Unit" {
		t.Fatalf("unexpected choices %v correct %d", q.Choices, q.Correct)
	}
}

func TestFetchRandomCategoryOmitsParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"type":"boolean","question":"Sky%20is%20blue","correct_answer":"True","incorrect_answers":["False"]}]}`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, time.Second)
	f.Encoding = EncodingRFC3986
	q, err := f.Fetch(context.Background(), 0, "easy")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "amount=1&difficulty=easy&encode=url3986" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if q.Prompt != "Sky is blue" || q.Correct != 0 {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestFetchFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"http 500", http.StatusInternalServerError, "", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 500
		}},
		{"api code", http.StatusOK, `{"response_code":1,"results":[]}`, func(err error) bool {
			var ae *APIError
			return errors.As(err, &ae) && ae.Code == 1
		}},
		{"bad json", http.StatusOK, `{"response_code":`, func(err error) bool { return errors.Is(err, ErrParse) }},
		{"empty", http.StatusOK, `{"response_code":0,"results":[]}`, func(err error) bool { return errors.Is(err, ErrNoResults) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewFetcher(srv.URL, time.Second).Fetch(context.Background(), 9, "easy")
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}
