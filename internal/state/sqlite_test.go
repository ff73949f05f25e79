package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestPrefsRoundTripAndDefaults(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	got, err := store.GetString(ctx, NamespaceConfig, "espnow_nick", "ESP32C3")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if got != "ESP32C3" {
		t.Fatalf("expected default nickname, got %q", got)
	}

	if err := store.PutString(ctx, NamespaceConfig, "espnow_nick", "Ngh Mai"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutString(ctx, NamespaceConfig, "espnow_nick", "Pocket"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = store.GetString(ctx, NamespaceConfig, "espnow_nick", "ESP32C3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "Pocket" {
		t.Fatalf("expected Pocket, got %q", got)
	}

	// Same key in another namespace stays independent.
	if err := store.PutString(ctx, NamespaceMusic, "espnow_nick", "x"); err != nil {
		t.Fatalf("put music: %v", err)
	}
	got, _ = store.GetString(ctx, NamespaceConfig, "espnow_nick", "")
	if got != "Pocket" {
		t.Fatalf("expected namespace isolation, got %q", got)
	}
}

func TestDeleteNamespace(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	_ = store.PutString(ctx, NamespaceConfig, "ssid", "home")
	_ = store.PutString(ctx, NamespaceConfig, "password", "secret")
	_ = store.PutString(ctx, NamespaceMusic, "track1", "Intro")

	if err := store.DeleteNamespace(ctx, NamespaceConfig); err != nil {
		t.Fatalf("delete namespace: %v", err)
	}
	cfg, err := store.Namespace(ctx, NamespaceConfig)
	if err != nil {
		t.Fatalf("namespace: %v", err)
	}
	if len(cfg) != 0 {
		t.Fatalf("expected empty config namespace, got %v", cfg)
	}
	music, _ := store.Namespace(ctx, NamespaceMusic)
	if music["track1"] != "Intro" {
		t.Fatalf("expected music namespace untouched, got %v", music)
	}
}

func TestLeaderboardReplaceAndOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := []LeaderboardEntry{
		{Name: "ana", Score: 120, Questions: 10, Correct: 8},
		{Name: "bo", Score: 90, Questions: 10, Correct: 7},
	}
	if err := store.SaveLeaderboard(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := []LeaderboardEntry{
		{Name: "cy", Score: 300, Questions: 20, Correct: 19},
		{Name: "ana", Score: 120, Questions: 10, Correct: 8},
		{Name: "bo", Score: 90, Questions: 10, Correct: 7},
	}
	if err := store.SaveLeaderboard(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	got, err := store.LoadLeaderboard(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, e := range got {
		if e.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, e.Rank)
		}
		if e.Name != second[i].Name || e.Score != second[i].Score || e.Correct != second[i].Correct {
			t.Fatalf("entry %d mismatch: %+v", i, e)
		}
	}
}

func TestRecordAndListSessions(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.RecordSession(ctx, SessionRecord{
			SessionID:  "s",
			Difficulty: "easy",
			Mode:       "quick",
			Score:      10 * (i + 1),
			Answered:   5,
			FinishedTS: at.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	got, err := store.RecentSessions(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].Score != 30 {
		t.Fatalf("expected newest first, got score %d", got[0].Score)
	}
	if !got[0].FinishedTS.Equal(at.Add(2 * time.Minute)) {
		t.Fatalf("expected finished ts round trip, got %v", got[0].FinishedTS)
	}
}
