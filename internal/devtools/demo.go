package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"aipocket/internal/ui"
)

// Scenario is a named button script replayed from the main menu.
type Scenario struct {
	Name    string
	Presses []ui.Button
}

const (
	up   = ui.ButtonUp
	down = ui.ButtonDown
	ok   = ui.ButtonOK
)

// Main menu order: AI CHAT, WIFI, PEER CHAT, MUSIC, FM RADIO, TRIVIA, SYSTEM.
var scenarios = map[string][]ui.Button{
	"main_menu":   nil,
	"wifi_menu":   {down, ok},
	"peer_menu":   {down, down, ok},
	"peer_chat":   {down, down, ok, ok},
	"music":       {down, down, down, ok},
	"fm_radio":    {down, down, down, down, ok},
	"quiz_menu":   {down, down, down, down, down, ok},
	"leaderboard": {down, down, down, down, down, ok, down, ok},
	"system":      {up, ok},
	"keyboard":    {down, down, ok, down, down, ok},
}

var aliases = map[string]string{
	"menu":   "main_menu",
	"wifi":   "wifi_menu",
	"peers":  "peer_menu",
	"fm":     "fm_radio",
	"trivia": "quiz_menu",
	"scores": "leaderboard",
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

// Resolve maps a scenario name to its script. Unknown names fall back to
// the main menu.
func (m *Manager) Resolve(name string) Scenario {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, found := aliases[key]; found {
		key = alias
	}
	presses, found := scenarios[key]
	if !found {
		return Scenario{Name: "main_menu"}
	}
	return Scenario{Name: key, Presses: append([]ui.Button(nil), presses...)}
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(scenarios))
	for name := range scenarios {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetState writes dev_state.json for external harnesses polling the app.
func (m *Manager) SetState(ctx context.Context, dir string, state string, rendered bool) error {
	_ = ctx
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".cache", "aipocket")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":      strings.TrimSpace(state),
		"rendered":   rendered,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(dir, "dev_state.json"), b, 0o644)
}
