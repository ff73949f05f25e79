package aichat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultEndpoint        = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-lite:generateContent"
	DefaultTimeout         = 30 * time.Second
	DefaultTemperature     = 0.8
	DefaultMaxOutputTokens = 200
)

var (
	ErrParse          = errors.New("aichat: malformed response body")
	ErrNoCandidates   = errors.New("aichat: response has no candidates")
	ErrEmptyResponse  = errors.New("aichat: candidate has no text")
	ErrMissingAPIKey  = errors.New("aichat: api key not configured")
	ErrNotConnected   = errors.New("aichat: wifi not connected")
	errEndpointScheme = errors.New("endpoint must be http or https")
)

// HTTPError is a non-200 reply from the model endpoint.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("HTTP Error: %d", e.Status) }

type Client struct {
	Endpoint        string
	APIKey          string
	Temperature     float64
	MaxOutputTokens int
	HTTP            *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint:        endpoint,
		APIKey:          apiKey,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
		HTTP:            &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and returns the first candidate's text, trimmed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return "", ErrMissingAPIKey
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("ai endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errEndpointScheme
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: c.Temperature, MaxOutputTokens: c.MaxOutputTokens},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &HTTPError{Status: resp.StatusCode}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", ErrParse
	}
	if len(out.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	parts := out.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(parts[0].Text), nil
}
