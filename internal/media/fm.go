package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aipocket/internal/hw"
	"aipocket/internal/state"
)

const (
	MaxPresets     = 10
	presetsKey     = "presets"
	maxPresetName  = 12
	fmMaxVolume    = 15
	fmDefaultLevel = 8
)

var (
	ErrNoTuner     = errors.New("FM tuner not available")
	ErrPresetsFull = errors.New("preset list full")
	ErrNoPreset    = errors.New("no such preset")
)

type Preset struct {
	Freq int    `json:"freq"`
	Name string `json:"name"`
}

func (p Preset) Label() string {
	if p.Name == "" {
		return hw.FormatFM(p.Freq)
	}
	return p.Name + " " + hw.FormatFM(p.Freq)
}

// FM wraps the tuner with presets that persist under the fm namespace.
type FM struct {
	tuner   hw.Tuner
	prefs   state.Prefs
	presets []Preset
	Volume  int
	Muted   bool
}

func NewFM(tuner hw.Tuner, prefs state.Prefs) *FM {
	return &FM{tuner: tuner, prefs: prefs, Volume: fmDefaultLevel}
}

func (f *FM) Available() bool { return f.tuner != nil }

func (f *FM) Load(ctx context.Context) error {
	if f.prefs == nil {
		return nil
	}
	raw, err := f.prefs.GetString(ctx, state.NamespaceFM, presetsKey, "")
	if err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		f.presets = nil
		return nil
	}
	var presets []Preset
	if err := json.Unmarshal([]byte(raw), &presets); err != nil {
		return fmt.Errorf("decode fm presets: %w", err)
	}
	if len(presets) > MaxPresets {
		presets = presets[:MaxPresets]
	}
	f.presets = presets
	return nil
}

func (f *FM) save(ctx context.Context) error {
	if f.prefs == nil {
		return nil
	}
	b, err := json.Marshal(f.presets)
	if err != nil {
		return err
	}
	return f.prefs.PutString(ctx, state.NamespaceFM, presetsKey, string(b))
}

func (f *FM) Frequency() int {
	if f.tuner == nil {
		return hw.FMDefault
	}
	return f.tuner.Frequency()
}

// Step tunes by delta tenths of a MHz, wrapping at the band edges.
func (f *FM) Step(delta int) error {
	if f.tuner == nil {
		return ErrNoTuner
	}
	next := f.tuner.Frequency() + delta
	switch {
	case next > hw.FMMax:
		next = hw.FMMin
	case next < hw.FMMin:
		next = hw.FMMax
	}
	return f.tuner.Tune(next)
}

func (f *FM) Seek(ctx context.Context, up bool) (int, error) {
	if f.tuner == nil {
		return 0, ErrNoTuner
	}
	return f.tuner.Seek(ctx, up)
}

func (f *FM) AdjustVolume(delta int) error {
	if f.tuner == nil {
		return ErrNoTuner
	}
	v := min(max(f.Volume+delta, 0), fmMaxVolume)
	if err := f.tuner.SetVolume(v); err != nil {
		return err
	}
	f.Volume = v
	return nil
}

func (f *FM) ToggleMute() error {
	if f.tuner == nil {
		return ErrNoTuner
	}
	if err := f.tuner.SetMute(!f.Muted); err != nil {
		return err
	}
	f.Muted = !f.Muted
	return nil
}

func (f *FM) Presets() []Preset {
	return append([]Preset(nil), f.presets...)
}

// SavePreset stores the current frequency. Saving a frequency that is
// already a preset renames it instead of adding a duplicate.
func (f *FM) SavePreset(ctx context.Context, name string) (int, error) {
	if f.tuner == nil {
		return 0, ErrNoTuner
	}
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxPresetName {
		name = string(r[:maxPresetName])
	}
	freq := f.tuner.Frequency()
	for i := range f.presets {
		if f.presets[i].Freq == freq {
			f.presets[i].Name = name
			return i, f.save(ctx)
		}
	}
	if len(f.presets) >= MaxPresets {
		return 0, ErrPresetsFull
	}
	f.presets = append(f.presets, Preset{Freq: freq, Name: name})
	return len(f.presets) - 1, f.save(ctx)
}

func (f *FM) Recall(i int) error {
	if f.tuner == nil {
		return ErrNoTuner
	}
	if i < 0 || i >= len(f.presets) {
		return ErrNoPreset
	}
	return f.tuner.Tune(f.presets[i].Freq)
}

func (f *FM) DeletePreset(ctx context.Context, i int) error {
	if i < 0 || i >= len(f.presets) {
		return ErrNoPreset
	}
	f.presets = append(f.presets[:i], f.presets[i+1:]...)
	return f.save(ctx)
}
