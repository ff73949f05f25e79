package hw

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	FMMin     = 875
	FMMax     = 1080
	FMDefault = 1017

	MaxNetworks = 15
)

type Capabilities struct {
	Network bool
	Audio   bool
	Tuner   bool
	Battery bool
	Tracks  int
}

// Detect probes each peripheral once. A missing or failing device is
// reported as absent rather than as an error.
func Detect(ctx context.Context, p Peripherals) (Capabilities, map[string]error) {
	caps := Capabilities{Network: p.Network != nil}
	problems := map[string]error{}
	if p.Audio != nil {
		n, err := p.Audio.TrackCount(ctx)
		if err != nil {
			problems["audio"] = err
		} else {
			caps.Audio = true
			caps.Tracks = n
		}
	}
	if p.Tuner != nil {
		if err := p.Tuner.Tune(FMDefault); err != nil {
			problems["tuner"] = err
		} else {
			caps.Tuner = true
		}
	}
	if p.Battery != nil {
		if _, err := p.Battery.MilliVolts(); err != nil {
			problems["battery"] = err
		} else {
			caps.Battery = true
		}
	}
	return caps, problems
}

var ErrJoinTimeout = errors.New("network join timed out")

// Connect starts association and polls up to attempts times, backoff apart.
func Connect(ctx context.Context, n Network, ssid, password string, attempts int, backoff time.Duration) error {
	if n == nil {
		return errors.New("no network interface")
	}
	if strings.TrimSpace(ssid) == "" {
		return errors.New("ssid is required")
	}
	if attempts <= 0 {
		attempts = 20
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	if err := n.Begin(ssid, password); err != nil {
		return fmt.Errorf("join %s: %w", ssid, err)
	}
	t := time.NewTicker(backoff)
	defer t.Stop()
	for i := 0; i < attempts; i++ {
		if n.Connected() {
			return nil
		}
		select {
		case <-ctx.Done():
			_ = n.Disconnect()
			return ctx.Err()
		case <-t.C:
		}
	}
	if n.Connected() {
		return nil
	}
	_ = n.Disconnect()
	return ErrJoinTimeout
}

// RankNetworks keeps the strongest entry per SSID, strongest first.
func RankNetworks(aps []AccessPoint, limit int) []AccessPoint {
	best := map[string]AccessPoint{}
	for _, ap := range aps {
		if strings.TrimSpace(ap.SSID) == "" {
			continue
		}
		if cur, ok := best[ap.SSID]; !ok || ap.RSSI > cur.RSSI {
			best[ap.SSID] = ap
		}
	}
	out := make([]AccessPoint, 0, len(best))
	for _, ap := range best {
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RSSI != out[j].RSSI {
			return out[i].RSSI > out[j].RSSI
		}
		return out[i].SSID < out[j].SSID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

const (
	BatteryEmptyMV    = 3000
	BatteryFullMV     = 4200
	BatteryCriticalMV = 3300
)

func BatteryPercent(mv int) int {
	switch {
	case mv <= BatteryEmptyMV:
		return 0
	case mv >= BatteryFullMV:
		return 100
	}
	return (mv - BatteryEmptyMV) * 100 / (BatteryFullMV - BatteryEmptyMV)
}

func BatteryCritical(mv int) bool {
	return mv > 0 && mv < BatteryCriticalMV
}

func ClampFM(freq int) int {
	return min(max(freq, FMMin), FMMax)
}

func FormatFM(freq int) string {
	return fmt.Sprintf("%d.%d MHz", freq/10, freq%10)
}
