package aichat

import (
	"context"
	"errors"
	"strings"
)

type Mode int

const (
	ModeCompanion Mode = iota
	ModeStandard
)

func (m Mode) String() string {
	if m == ModeStandard {
		return "Standard"
	}
	return "Companion"
}

const (
	MaxHistory    = 1000
	historyCutMin = 200
)

var systemPrompts = map[Mode]string{
	ModeCompanion: "You are a cheerful pocket companion. Keep a friendly, casual tone and remember what the user told you earlier.",
	ModeStandard:  "You are a concise assistant on a tiny handheld screen. Answer plainly.",
}

// Conversation builds prompts and keeps a bounded transcript. Only the
// companion mode sends the transcript back to the model.
type Conversation struct {
	Mode    Mode
	history string
	count   int
}

func (c *Conversation) BuildPrompt(message string) string {
	var b strings.Builder
	b.WriteString(systemPrompts[c.Mode])
	b.WriteString("\n\n")
	if c.history != "" && c.Mode == ModeCompanion {
		b.WriteString("HISTORY:\n")
		b.WriteString(c.history)
		b.WriteString("\n\n")
	}
	b.WriteString("USER: ")
	b.WriteString(message)
	b.WriteString("\n\nAnswer briefly (200 characters max):")
	return b.String()
}

// Record appends an exchange. When the transcript would exceed MaxHistory
// the oldest exchanges ending past the first 200 chars are dropped.
func (c *Conversation) Record(user, reply string) {
	entry := "U:" + user + "\nA:" + reply + "\n"
	for len(c.history)+len(entry) > MaxHistory && len(c.history) > historyCutMin {
		cut := strings.Index(c.history[historyCutMin:], "\nU:")
		if cut < 0 {
			c.history = ""
			break
		}
		c.history = c.history[historyCutMin+cut+1:]
	}
	c.history += entry
	c.count++
}

func (c *Conversation) History() string { return c.history }

func (c *Conversation) Count() int { return c.count }

func (c *Conversation) Clear() {
	c.history = ""
	c.count = 0
}

// FailureText maps a Generate error to the short text shown on screen.
func FailureText(err error) string {
	if err == nil {
		return ""
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Error()
	}
	for _, f := range failureTexts {
		if errors.Is(err, f.err) {
			return f.text
		}
	}
	return "Request failed"
}

var failureTexts = []struct {
	err  error
	text string
}{
	{ErrParse, "Parse error"},
	{ErrNoCandidates, "Error response"},
	{ErrEmptyResponse, "No response"},
	{ErrMissingAPIKey, "AI key not configured"},
	{ErrNotConnected, "WiFi not connected"},
	{context.Canceled, "Cancelled"},
}
