package media

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"aipocket/internal/hw"
	"aipocket/internal/state"
)

func newStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store, err := state.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

func TestPlayerSkipRepeatAndGuard(t *testing.T) {
	audio := hw.NewSimAudio(3)
	p := NewPlayer(audio, nil)
	if err := p.Load(context.Background(), 3); err != nil {
		t.Fatalf("load: %v", err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if ok, _ := p.Next(now); !ok || p.Current != 2 {
		t.Fatalf("expected track 2, got %d", p.Current)
	}
	if ok, _ := p.Next(now.Add(100 * time.Millisecond)); ok {
		t.Fatalf("expected skip inside guard to be ignored")
	}
	now = now.Add(time.Second)
	p.Next(now)
	now = now.Add(time.Second)
	if ok, _ := p.Next(now); ok || p.Current != 3 {
		t.Fatalf("expected to stay on last track without repeat, got %d", p.Current)
	}
	p.ToggleRepeat()
	if ok, _ := p.Next(now); !ok || p.Current != 1 {
		t.Fatalf("expected wrap to track 1 with repeat, got %d", p.Current)
	}
	now = now.Add(time.Second)
	if ok, _ := p.Prev(now); !ok || p.Current != 3 {
		t.Fatalf("expected prev wrap to track 3, got %d", p.Current)
	}
	if audio.Track != 3 || !audio.Playing {
		t.Fatalf("expected device playing track 3, got %d %v", audio.Track, audio.Playing)
	}
}

func TestPlayerShuffleAvoidsCurrent(t *testing.T) {
	p := NewPlayer(hw.NewSimAudio(5), nil)
	_ = p.Load(context.Background(), 5)
	p.Shuffle = true
	p.Current = 2
	p.IntN = func(int) int { return 1 }
	p.Next(time.Now())
	if p.Current != 3 {
		t.Fatalf("expected shuffle to skip over current track, got %d", p.Current)
	}
}

func TestPlayerPlayPauseResume(t *testing.T) {
	audio := hw.NewSimAudio(2)
	p := NewPlayer(audio, nil)
	_ = p.Load(context.Background(), 2)
	for i := 0; i < 3; i++ {
		if err := p.PlayPause(); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	want := []string{"volume", "play", "pause", "resume"}
	if len(audio.Log) != len(want) {
		t.Fatalf("expected %v, got %v", want, audio.Log)
	}
	for i := range want {
		if audio.Log[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, audio.Log)
		}
	}
}

func TestPlayerVolumeEQAndNames(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	p := NewPlayer(hw.NewSimAudio(4), store)
	_ = p.Load(ctx, 4)
	for i := 0; i < 20; i++ {
		_ = p.AdjustVolume(1)
	}
	if p.Volume != MaxVolume {
		t.Fatalf("expected volume clamped at %d, got %d", MaxVolume, p.Volume)
	}
	if err := p.SetEQ(len(EQNames)); err == nil {
		t.Fatalf("expected eq range error")
	}
	if err := p.RenameTrack(ctx, 2, "Morning Song"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	again := NewPlayer(hw.NewSimAudio(4), store)
	if err := again.Load(ctx, 4); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.TrackName(2) != "Morning Song" || again.TrackName(3) != "Track 3" {
		t.Fatalf("unexpected names %q %q", again.TrackName(2), again.TrackName(3))
	}
}

func TestPlayerWithoutAudio(t *testing.T) {
	p := NewPlayer(nil, nil)
	if err := p.PlayPause(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestFMPresetsPersistAndCap(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	tuner := hw.NewSimTuner()
	fm := NewFM(tuner, store)

	for i := 0; i < MaxPresets; i++ {
		_ = tuner.Tune(900 + i*10)
		if _, err := fm.SavePreset(ctx, "st"); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	_ = tuner.Tune(1079)
	if _, err := fm.SavePreset(ctx, "extra"); !errors.Is(err, ErrPresetsFull) {
		t.Fatalf("expected ErrPresetsFull, got %v", err)
	}
	_ = tuner.Tune(900)
	if idx, err := fm.SavePreset(ctx, "Jazz FM"); err != nil || idx != 0 {
		t.Fatalf("expected rename of preset 0, got %d %v", idx, err)
	}
	if err := fm.DeletePreset(ctx, 9); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reloaded := NewFM(tuner, store)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, want := reloaded.Presets(), fm.Presets()
	if len(got) != MaxPresets-1 || len(got) != len(want) {
		t.Fatalf("expected %d presets, got %d", MaxPresets-1, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("preset %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if err := reloaded.Recall(0); err != nil || tuner.Frequency() != 900 {
		t.Fatalf("expected recall to 90.0, got %d %v", tuner.Frequency(), err)
	}
	if got[0].Label() != "Jazz FM 90.0 MHz" {
		t.Fatalf("unexpected label %q", got[0].Label())
	}
}

func TestFMStepWraps(t *testing.T) {
	tuner := hw.NewSimTuner()
	fm := NewFM(tuner, nil)
	_ = tuner.Tune(hw.FMMax)
	_ = fm.Step(1)
	if fm.Frequency() != hw.FMMin {
		t.Fatalf("expected wrap to band start, got %d", fm.Frequency())
	}
	_ = fm.Step(-1)
	if fm.Frequency() != hw.FMMax {
		t.Fatalf("expected wrap to band end, got %d", fm.Frequency())
	}
	if err := NewFM(nil, nil).Step(1); !errors.Is(err, ErrNoTuner) {
		t.Fatalf("expected ErrNoTuner, got %v", err)
	}
}
