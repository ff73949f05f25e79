package aichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerateSendsPayloadAndReadsFirstPart(t *testing.T) {
	var got generateRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotKey = r.URL.Query().Get("key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  hi there \n"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k123", time.Second)
	text, err := c.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "hi there" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if gotKey != "k123" {
		t.Fatalf("expected api key in query, got %q", gotKey)
	}
	if len(got.Contents) != 1 || got.Contents[0].Parts[0].Text != "hello" {
		t.Fatalf("unexpected contents %+v", got.Contents)
	}
	if got.GenerationConfig.Temperature != 0.8 || got.GenerationConfig.MaxOutputTokens != 200 {
		t.Fatalf("unexpected generation config %+v", got.GenerationConfig)
	}
}

func TestGenerateFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http", http.StatusForbidden, "", "HTTP Error: 403"},
		{"parse", http.StatusOK, "{", "Parse error"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "Error response"},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, "No response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewClient(srv.URL, "k", time.Second).Generate(context.Background(), "x")
			if got := FailureText(err); got != tc.want {
				t.Fatalf("expected %q, got %q (%v)", tc.want, got, err)
			}
		})
	}
}

func TestFailureTextKeepsErrorsLowerCase(t *testing.T) {
	cases := map[error]string{
		ErrParse:                         "Parse error",
		ErrNoCandidates:                  "Error response",
		ErrEmptyResponse:                 "No response",
		ErrMissingAPIKey:                 "AI key not configured",
		ErrNotConnected:                  "WiFi not connected",
		fmt.Errorf("wrap: %w", ErrParse): "Parse error",
		context.Canceled:                 "Cancelled",
		errors.New("dial tcp: refused"):  "Request failed",
		&HTTPError{Status: 429}:          "HTTP Error: 429",
	}
	for err, want := range cases {
		if got := FailureText(err); got != want {
			t.Fatalf("expected %q for %v, got %q", want, err, got)
		}
	}
	for _, err := range []error{ErrParse, ErrNoCandidates, ErrEmptyResponse, ErrMissingAPIKey, ErrNotConnected} {
		if msg := err.Error(); msg != strings.ToLower(msg) {
			t.Fatalf("expected lower-case error string, got %q", msg)
		}
	}
}

func TestGenerateRequiresKey(t *testing.T) {
	_, err := NewClient("", "", 0).Generate(context.Background(), "x")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestConversationPromptAndHistory(t *testing.T) {
	var c Conversation
	c.Record("hi", "hello")
	p := c.BuildPrompt("how are you")
	if !strings.Contains(p, "HISTORY:\nU:hi\nA:hello\n") || !strings.Contains(p, "USER: how are you") {
		t.Fatalf("companion prompt missing history: %q", p)
	}
	c.Mode = ModeStandard
	if strings.Contains(c.BuildPrompt("x"), "HISTORY") {
		t.Fatalf("standard mode must not send history")
	}

	for i := 0; i < 50; i++ {
		c.Record(strings.Repeat("u", 20), strings.Repeat("a", 20))
	}
	if len(c.History()) > MaxHistory+50 {
		t.Fatalf("history grew unbounded: %d", len(c.History()))
	}
	if !strings.HasPrefix(c.History(), "U:") {
		t.Fatalf("history should be trimmed at line boundaries, got %q", c.History()[:10])
	}
	if c.Count() != 51 {
		t.Fatalf("expected 51 exchanges, got %d", c.Count())
	}
	c.Clear()
	if c.History() != "" || c.Count() != 0 {
		t.Fatalf("expected cleared conversation")
	}
}
