package hw

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

var ErrWrongPassword = errors.New("authentication failed")

// SimNetwork is an in-memory access point list. A join succeeds after
// ConnectPolls calls to Connected when the password matches.
type SimNetwork struct {
	mu           sync.Mutex
	APs          []AccessPoint
	Passwords    map[string]string
	ConnectPolls int
	ScanErr      error

	pending   string
	pendingOK bool
	polls     int
	ssid      string
}

func NewSimNetwork() *SimNetwork {
	return &SimNetwork{
		APs: []AccessPoint{
			{SSID: "HomeNet", RSSI: -48, Secured: true},
			{SSID: "CafeFree", RSSI: -67},
			{SSID: "Office-5G", RSSI: -72, Secured: true},
		},
		Passwords:    map[string]string{"HomeNet": "password123", "CafeFree": "", "Office-5G": "letmein"},
		ConnectPolls: 2,
	}
}

func (s *SimNetwork) Scan(ctx context.Context) ([]AccessPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	return append([]AccessPoint(nil), s.APs...), nil
}

func (s *SimNetwork) Begin(ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssid = ""
	s.pending = ssid
	want, known := s.Passwords[ssid]
	s.pendingOK = known && want == password
	s.polls = 0
	return nil
}

func (s *SimNetwork) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ssid != "" {
		return true
	}
	if s.pending == "" || !s.pendingOK {
		return false
	}
	s.polls++
	if s.polls >= s.ConnectPolls {
		s.ssid = s.pending
		s.pending = ""
		return true
	}
	return false
}

func (s *SimNetwork) SSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ssid
}

func (s *SimNetwork) RSSI() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ap := range s.APs {
		if ap.SSID == s.ssid {
			return ap.RSSI
		}
	}
	return 0
}

func (s *SimNetwork) Disconnect() error {
	s.mu.Lock()
	s.ssid = ""
	s.pending = ""
	s.mu.Unlock()
	return nil
}

// SimAudio records commands instead of playing them.
type SimAudio struct {
	mu      sync.Mutex
	Tracks  int
	Track   int
	Playing bool
	Volume  int
	EQ      int
	Log     []string
}

func NewSimAudio(tracks int) *SimAudio {
	return &SimAudio{Tracks: tracks, Volume: 15}
}

func (a *SimAudio) TrackCount(context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Tracks <= 0 {
		return 0, errors.New("no storage card")
	}
	return a.Tracks, nil
}

func (a *SimAudio) record(entry string) {
	a.Log = append(a.Log, entry)
}

func (a *SimAudio) Play(track int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Track, a.Playing = track, true
	a.record("play")
	return nil
}

func (a *SimAudio) Pause() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Playing = false
	a.record("pause")
	return nil
}

func (a *SimAudio) Resume() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Playing = true
	a.record("resume")
	return nil
}

func (a *SimAudio) SetVolume(v int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Volume = v
	a.record("volume")
	return nil
}

func (a *SimAudio) SetEQ(eq int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.EQ = eq
	a.record("eq")
	return nil
}

func (a *SimAudio) Close() error { return nil }

// SimTuner has a fixed set of receivable stations.
type SimTuner struct {
	mu       sync.Mutex
	Stations []int
	freq     int
	volume   int
	muted    bool
}

func NewSimTuner() *SimTuner {
	return &SimTuner{Stations: []int{889, 925, 1017, 1045}, freq: FMDefault, volume: 8}
}

func (t *SimTuner) Tune(freq int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.freq = ClampFM(freq)
	return nil
}

func (t *SimTuner) Frequency() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.freq
}

// Seek steps 0.1 MHz at a time, wrapping at the band edges, until it lands
// on a station or has gone full circle.
func (t *SimTuner) Seek(ctx context.Context, up bool) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	step := 1
	if !up {
		step = -1
	}
	f := t.freq
	for i := 0; i <= FMMax-FMMin; i++ {
		if err := ctx.Err(); err != nil {
			return t.freq, err
		}
		f += step
		if f > FMMax {
			f = FMMin
		}
		if f < FMMin {
			f = FMMax
		}
		for _, s := range t.Stations {
			if s == f {
				t.freq = f
				return f, nil
			}
		}
	}
	return t.freq, errors.New("no station found")
}

func (t *SimTuner) SetVolume(v int) error {
	t.mu.Lock()
	t.volume = v
	t.mu.Unlock()
	return nil
}

func (t *SimTuner) SetMute(m bool) error {
	t.mu.Lock()
	t.muted = m
	t.mu.Unlock()
	return nil
}

func (t *SimTuner) SignalStrength() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.Stations {
		if s == t.freq {
			return 45
		}
	}
	return 5
}

// SimBattery drains linearly from Start to 3000 mV over Life.
type SimBattery struct {
	StartMV int
	Life    time.Duration
	began   time.Time
	now     func() time.Time
}

func NewSimBattery(startMV int, life time.Duration) *SimBattery {
	return &SimBattery{StartMV: startMV, Life: life, began: time.Now(), now: time.Now}
}

func (b *SimBattery) MilliVolts() (int, error) {
	if b.Life <= 0 {
		return b.StartMV, nil
	}
	frac := float64(b.now().Sub(b.began)) / float64(b.Life)
	mv := b.StartMV - int(frac*float64(b.StartMV-BatteryEmptyMV))
	return max(mv, BatteryEmptyMV), nil
}

// HostSystem reports the host process in place of chip statistics.
type HostSystem struct {
	began time.Time
}

func NewHostSystem() *HostSystem { return &HostSystem{began: time.Now()} }

func (h *HostSystem) TemperatureC() float64 { return 36.5 }

func (h *HostSystem) FreeMemory() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Sys > ms.HeapAlloc {
		return ms.Sys - ms.HeapAlloc
	}
	return 0
}

func (h *HostSystem) Uptime() time.Duration { return time.Since(h.began) }

var (
	_ Network     = (*SimNetwork)(nil)
	_ AudioPlayer = (*SimAudio)(nil)
	_ Tuner       = (*SimTuner)(nil)
	_ Battery     = (*SimBattery)(nil)
	_ System      = (*HostSystem)(nil)
)
