package media

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"aipocket/internal/hw"
	"aipocket/internal/state"
)

const (
	MaxVolume     = 30
	DefaultVolume = 15
	MaxTrackNames = 50
	skipGuard     = 500 * time.Millisecond
)

var EQNames = []string{"Normal", "Pop", "Rock", "Jazz", "Classic", "Bass"}

var ErrNoAudio = errors.New("audio not available")

// Player tracks playback state for the audio peripheral. Track numbers
// are 1-based.
type Player struct {
	audio hw.AudioPlayer
	prefs state.Prefs
	IntN  func(int) int

	Tracks  int
	Current int
	Playing bool
	Volume  int
	EQ      int
	Shuffle bool
	Repeat  bool

	names    map[int]string
	lastSkip time.Time
	begun    bool
}

func NewPlayer(audio hw.AudioPlayer, prefs state.Prefs) *Player {
	return &Player{
		audio:   audio,
		prefs:   prefs,
		IntN:    rand.IntN,
		Current: 1,
		Volume:  DefaultVolume,
		names:   map[int]string{},
	}
}

func (p *Player) Available() bool { return p.audio != nil && p.Tracks > 0 }

// Load sets the track count and reads saved track names.
func (p *Player) Load(ctx context.Context, tracks int) error {
	p.Tracks = max(tracks, 0)
	if p.Current > p.Tracks {
		p.Current = 1
	}
	if p.prefs != nil {
		for n := 1; n <= min(p.Tracks, MaxTrackNames); n++ {
			name, err := p.prefs.GetString(ctx, state.NamespaceMusic, trackKey(n), "")
			if err != nil {
				return fmt.Errorf("load track names: %w", err)
			}
			if strings.TrimSpace(name) != "" {
				p.names[n] = name
			}
		}
	}
	if p.audio != nil {
		return p.audio.SetVolume(p.Volume)
	}
	return nil
}

func (p *Player) TrackName(n int) string {
	if name, ok := p.names[n]; ok {
		return name
	}
	return "Track " + strconv.Itoa(n)
}

func (p *Player) RenameTrack(ctx context.Context, n int, name string) error {
	if n < 1 || n > min(p.Tracks, MaxTrackNames) {
		return fmt.Errorf("track %d cannot be named", n)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		delete(p.names, n)
	} else {
		p.names[n] = name
	}
	if p.prefs == nil {
		return nil
	}
	return p.prefs.PutString(ctx, state.NamespaceMusic, trackKey(n), name)
}

func (p *Player) PlayPause() error {
	if !p.Available() {
		return ErrNoAudio
	}
	var err error
	switch {
	case p.Playing:
		err = p.audio.Pause()
	case !p.begun:
		err = p.audio.Play(p.Current)
	default:
		err = p.audio.Resume()
	}
	if err != nil {
		return err
	}
	p.Playing = !p.Playing
	p.begun = true
	return nil
}

// Select plays track n immediately.
func (p *Player) Select(n int) error {
	if !p.Available() {
		return ErrNoAudio
	}
	if n < 1 || n > p.Tracks {
		return fmt.Errorf("track %d out of range", n)
	}
	if err := p.audio.Play(n); err != nil {
		return err
	}
	p.Current, p.Playing, p.begun = n, true, true
	return nil
}

// Next advances, honoring shuffle and repeat. Presses inside the skip
// guard are ignored and report false.
func (p *Player) Next(now time.Time) (bool, error) {
	return p.skip(now, 1)
}

func (p *Player) Prev(now time.Time) (bool, error) {
	return p.skip(now, -1)
}

func (p *Player) skip(now time.Time, dir int) (bool, error) {
	if !p.Available() {
		return false, ErrNoAudio
	}
	if !p.lastSkip.IsZero() && now.Sub(p.lastSkip) < skipGuard {
		return false, nil
	}
	next := p.Current + dir
	switch {
	case p.Shuffle && p.Tracks > 1:
		next = p.IntN(p.Tracks-1) + 1
		if next >= p.Current {
			next++
		}
	case next > p.Tracks:
		if !p.Repeat {
			return false, nil
		}
		next = 1
	case next < 1:
		if !p.Repeat {
			return false, nil
		}
		next = p.Tracks
	}
	p.lastSkip = now
	return true, p.Select(next)
}

func (p *Player) AdjustVolume(delta int) error {
	v := min(max(p.Volume+delta, 0), MaxVolume)
	if v == p.Volume {
		return nil
	}
	if p.audio != nil {
		if err := p.audio.SetVolume(v); err != nil {
			return err
		}
	}
	p.Volume = v
	return nil
}

func (p *Player) SetEQ(eq int) error {
	if eq < 0 || eq >= len(EQNames) {
		return fmt.Errorf("eq %d out of range", eq)
	}
	if p.audio != nil {
		if err := p.audio.SetEQ(eq); err != nil {
			return err
		}
	}
	p.EQ = eq
	return nil
}

func (p *Player) ToggleShuffle() { p.Shuffle = !p.Shuffle }

func (p *Player) ToggleRepeat() { p.Repeat = !p.Repeat }

func trackKey(n int) string { return "track" + strconv.Itoa(n) }
