package hw

import (
	"context"
	"time"
)

type AccessPoint struct {
	SSID    string
	RSSI    int
	Secured bool
}

// Network is the wireless station interface. Begin starts association and
// returns immediately; callers poll Connected.
type Network interface {
	Scan(ctx context.Context) ([]AccessPoint, error)
	Begin(ssid, password string) error
	Connected() bool
	SSID() string
	RSSI() int
	Disconnect() error
}

type AudioPlayer interface {
	TrackCount(ctx context.Context) (int, error)
	Play(track int) error
	Pause() error
	Resume() error
	SetVolume(volume int) error
	SetEQ(eq int) error
	Close() error
}

// Tuner frequencies are in tenths of a MHz (1017 = 101.7 MHz).
type Tuner interface {
	Tune(freq int) error
	Frequency() int
	Seek(ctx context.Context, up bool) (int, error)
	SetVolume(volume int) error
	SetMute(muted bool) error
	SignalStrength() int
}

type Battery interface {
	MilliVolts() (int, error)
}

type System interface {
	TemperatureC() float64
	FreeMemory() uint64
	Uptime() time.Duration
}

// Peripherals bundles the optional drivers. Nil entries are absent.
type Peripherals struct {
	Network Network
	Audio   AudioPlayer
	Tuner   Tuner
	Battery Battery
	System  System
}
