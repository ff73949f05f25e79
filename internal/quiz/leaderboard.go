package quiz

import (
	"context"
	"sort"

	"aipocket/internal/state"
)

const LeaderboardSize = 5

type Entry = state.LeaderboardEntry

type Store interface {
	LoadLeaderboard(ctx context.Context) ([]state.LeaderboardEntry, error)
	SaveLeaderboard(ctx context.Context, entries []state.LeaderboardEntry) error
	RecordSession(ctx context.Context, rec state.SessionRecord) error
}

// Leaderboard keeps the top scores in descending order.
type Leaderboard struct {
	entries []Entry
}

func NewLeaderboard(entries []Entry) *Leaderboard {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if len(sorted) > LeaderboardSize {
		sorted = sorted[:LeaderboardSize]
	}
	for i := range sorted {
		sorted[i].Rank = i + 1
	}
	return &Leaderboard{entries: sorted}
}

func LoadLeaderboard(ctx context.Context, store Store) (*Leaderboard, error) {
	if store == nil {
		return NewLeaderboard(nil), nil
	}
	entries, err := store.LoadLeaderboard(ctx)
	if err != nil {
		return NewLeaderboard(nil), err
	}
	return NewLeaderboard(entries), nil
}

// Qualifies reports whether score would enter the table. Ties with the
// bottom entry of a full table do not displace it.
func (l *Leaderboard) Qualifies(score int) bool {
	if score <= 0 {
		return false
	}
	if len(l.entries) < LeaderboardSize {
		return true
	}
	return score > l.entries[len(l.entries)-1].Score
}

// Insert places e below any equal scores and returns its 1-based rank.
func (l *Leaderboard) Insert(e Entry) (int, bool) {
	if !l.Qualifies(e.Score) {
		return 0, false
	}
	pos := len(l.entries)
	for i, cur := range l.entries {
		if e.Score > cur.Score {
			pos = i
			break
		}
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = e
	if len(l.entries) > LeaderboardSize {
		l.entries = l.entries[:LeaderboardSize]
	}
	for i := range l.entries {
		l.entries[i].Rank = i + 1
	}
	return pos + 1, true
}

func (l *Leaderboard) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

func (l *Leaderboard) Save(ctx context.Context, store Store) error {
	if store == nil {
		return nil
	}
	return store.SaveLeaderboard(ctx, l.Entries())
}
