package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://opentdb.com/api.php"
	DefaultTimeout = 10 * time.Second

	KindBoolean  = "boolean"
	KindMultiple = "multiple"

	// EncodingRFC3986 asks the trivia API for percent-encoded fields.
	EncodingRFC3986 = "url3986"
)

var (
	ErrParse     = errors.New("parse error")
	ErrNoResults = errors.New("no questions returned")
)

// StatusError is a non-200 HTTP response.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP Error: %d", e.Code) }

// APIError is a non-zero response_code in a 200 response.
type APIError struct{ Code int }

func (e *APIError) Error() string { return fmt.Sprintf("trivia api response code %d", e.Code) }

type Question struct {
	Category   string
	Difficulty string
	Kind       string
	Prompt     string
	Choices    []string
	Correct    int
}

type apiResponse struct {
	ResponseCode int         `json:"response_code"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Type             string   `json:"type"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type Fetcher struct {
	BaseURL  string
	Encoding string
	HTTP     *http.Client
	// IntN picks the slot for the correct answer; defaults to math/rand/v2.
	IntN func(n int) int
}

func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{BaseURL: baseURL, HTTP: &http.Client{Timeout: timeout}, IntN: rand.IntN}
}

func (f *Fetcher) Fetch(ctx context.Context, category int, difficulty string) (Question, error) {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return Question{}, fmt.Errorf("trivia url: %w", err)
	}
	q := u.Query()
	q.Set("amount", "1")
	if category > 0 {
		q.Set("category", strconv.Itoa(category))
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	if f.Encoding == EncodingRFC3986 {
		q.Set("encode", EncodingRFC3986)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Question{}, err
	}
	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Question{}, fmt.Errorf("trivia fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Question{}, &StatusError{Code: resp.StatusCode}
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Question{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if body.ResponseCode != 0 {
		return Question{}, &APIError{Code: body.ResponseCode}
	}
	if len(body.Results) == 0 {
		return Question{}, ErrNoResults
	}
	return f.toQuestion(body.Results[0])
}

func (f *Fetcher) toQuestion(r apiResult) (Question, error) {
	incorrect := make([]string, 0, len(r.IncorrectAnswers))
	for _, a := range r.IncorrectAnswers {
		incorrect = append(incorrect, f.decode(a))
	}
	intn := f.IntN
	if intn == nil {
		intn = rand.IntN
	}
	kind := strings.ToLower(f.decode(r.Type))
	choices, correct, err := BuildChoices(intn, kind, f.decode(r.CorrectAnswer), incorrect)
	if err != nil {
		return Question{}, err
	}
	return Question{
		Category:   f.decode(r.Category),
		Difficulty: strings.ToLower(f.decode(r.Difficulty)),
		Kind:       kind,
		Prompt:     f.decode(r.Question),
		Choices:    choices,
		Correct:    correct,
	}, nil
}

func (f *Fetcher) decode(s string) string {
	if f.Encoding == EncodingRFC3986 {
		if u, err := url.PathUnescape(s); err == nil {
			s = u
		}
	}
	return html.UnescapeString(s)
}

// BuildChoices lays out answers. True/false questions always show
// True then False; otherwise the correct answer goes to a random slot.
func BuildChoices(intn func(int) int, kind, correct string, incorrect []string) ([]string, int, error) {
	if strings.TrimSpace(correct) == "" {
		return nil, 0, fmt.Errorf("%w: missing correct answer", ErrParse)
	}
	if kind == KindBoolean {
		if strings.EqualFold(correct, "True") {
			return []string{"True", "False"}, 0, nil
		}
		return []string{"True", "False"}, 1, nil
	}
	if len(incorrect) == 0 {
		return nil, 0, fmt.Errorf("%w: no incorrect answers", ErrParse)
	}
	pos := intn(len(incorrect) + 1)
	if pos < 0 || pos > len(incorrect) {
		pos = len(incorrect)
	}
	choices := make([]string, 0, len(incorrect)+1)
	choices = append(choices, incorrect[:pos]...)
	choices = append(choices, correct)
	choices = append(choices, incorrect[pos:]...)
	return choices, pos, nil
}
