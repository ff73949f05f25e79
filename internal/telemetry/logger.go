package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger writes structured events. Messages are dotted event names,
// fields carry the details.
type Logger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	log *log.Logger
}

type Options struct {
	Path  string
	Level string
	// Text switches to the human readable formatter; files default to JSON.
	Text bool
}

func New(opts Options) (*Logger, error) {
	var w io.WriteCloser = nopCloser{Writer: io.Discard}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return newLogger(w, opts), nil
}

// NewWriter logs to w without taking ownership of it.
func NewWriter(w io.Writer, opts Options) *Logger {
	return newLogger(nopCloser{Writer: w}, opts)
}

func Discard() *Logger {
	return newLogger(nopCloser{Writer: io.Discard}, Options{})
}

func newLogger(w io.WriteCloser, opts Options) *Logger {
	formatter := log.JSONFormatter
	if opts.Text {
		formatter = log.TextFormatter
	}
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = log.InfoLevel
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Formatter:       formatter,
		Level:           level,
	})
	return &Logger{w: w, log: l}
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.emit(log.DebugLevel, msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.emit(log.InfoLevel, msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.emit(log.WarnLevel, msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.emit(log.ErrorLevel, msg, fields)
}

// With returns a logger that adds fields to every event.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil || l.log == nil {
		return l
	}
	return &Logger{w: nopCloser{Writer: l.w}, log: l.log.With(keyvals(fields)...)}
}

func (l *Logger) emit(level log.Level, msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Log(level, msg, keyvals(fields)...)
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

// keyvals flattens fields in key order so output is stable.
func keyvals(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
