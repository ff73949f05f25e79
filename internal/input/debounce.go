package input

import (
	"sync"
	"time"
)

const DefaultWindow = 200 * time.Millisecond

// Debouncer accepts at most one edge per window. Rejected edges are
// dropped, never queued.
type Debouncer struct {
	Window time.Duration

	mu       sync.Mutex
	last     time.Time
	accepted bool
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{Window: window}
}

func (d *Debouncer) Accept(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.accepted && now.Sub(d.last) < d.Window {
		return false
	}
	d.last = now
	d.accepted = true
	return true
}

func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.accepted = false
	d.last = time.Time{}
	d.mu.Unlock()
}
