package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestJSONEventsCarryFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, Options{Level: "info"})
	l.Info("quiz.fetch_failed", map[string]any{"status": 500, "category": 9})
	l.Debug("peer.inbound", map[string]any{"from": "AA"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected debug to be filtered, got %d lines: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "quiz.fetch_failed" {
		t.Fatalf("expected msg quiz.fetch_failed, got %v", entry["msg"])
	}
	if entry["status"] != float64(500) {
		t.Fatalf("expected status 500, got %v", entry["status"])
	}
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, Options{}).With(map[string]any{"session": "abc"})
	l.Warn("radio.send_failed", nil)
	if !strings.Contains(buf.String(), `"session":"abc"`) {
		t.Fatalf("expected session field, got %q", buf.String())
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "device.log")
	for i := 0; i < 2; i++ {
		l, err := New(Options{Path: path})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		l.Error("display.init_failed", map[string]any{"attempt": i})
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(b), "display.init_failed"); n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("noop", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("expected nil close error, got %v", err)
	}
}
