package ui

import (
	"strings"
	"sync"
)

// Recorder is a headless View. It keeps every frame it is given and blocks
// in Run until Stop.
type Recorder struct {
	mu       sync.Mutex
	ctrl     Controller
	frames   []Frame
	statuses []string
	limit    int

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRecorder keeps at most limit frames; zero keeps 256.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 256
	}
	return &Recorder{limit: limit, stop: make(chan struct{})}
}

func (r *Recorder) Run() error {
	<-r.stop
	return nil
}

func (r *Recorder) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Recorder) SetController(c Controller) {
	r.mu.Lock()
	r.ctrl = c
	r.mu.Unlock()
}

func (r *Recorder) SetFrame(f Frame) {
	f.Lines = append([]string(nil), f.Lines...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
}

func (r *Recorder) FlashStatus(msg string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, msg)
	r.mu.Unlock()
}

// Press forwards b to the controller as if a key had been pressed.
func (r *Recorder) Press(b Button) {
	r.mu.Lock()
	c := r.ctrl
	r.mu.Unlock()
	if c != nil {
		c.OnButton(b)
	}
}

func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func (r *Recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

// Text renders f as plain lines, the way the display would show it.
func (f Frame) Text() string {
	var b strings.Builder
	b.WriteString("[" + f.Title + "]\n")
	for i, line := range f.Lines {
		if i == f.Selected {
			b.WriteString("> ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if f.Footer != "" {
		b.WriteString(f.Footer + "\n")
	}
	if f.Status != "" {
		b.WriteString("! " + f.Status + "\n")
	}
	return b.String()
}

var _ View = (*Recorder)(nil)
