package ui

import (
	"fmt"
	"strings"
)

type Controller interface {
	OnButton(b Button)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetFrame(Frame)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenBoot Screen = iota
	ScreenMainMenu
	ScreenAIMode
	ScreenWiFiMenu
	ScreenWiFiScan
	ScreenWiFiPassword
	ScreenKeyboard
	ScreenChatResponse
	ScreenLoading
	ScreenSystemInfo
	ScreenPeerChat
	ScreenPeerMenu
	ScreenPeerList
	ScreenMusicPlayer
	ScreenMusicPlaylist
	ScreenMusicMenu
	ScreenMusicEqualizer
	ScreenQuizMenu
	ScreenQuizCategory
	ScreenQuizDifficulty
	ScreenQuizMode
	ScreenQuizLoading
	ScreenQuizPlaying
	ScreenQuizResult
	ScreenQuizGameOver
	ScreenQuizLeaderboard
	ScreenFMRadio
	ScreenFMMenu
	ScreenFMPreset

	screenCount
)

var screenNames = [screenCount]string{
	"boot", "main_menu", "ai_mode", "wifi_menu", "wifi_scan", "wifi_password",
	"keyboard", "chat_response", "loading", "system_info", "peer_chat", "peer_menu",
	"peer_list", "music_player", "music_playlist", "music_menu", "music_equalizer",
	"quiz_menu", "quiz_category", "quiz_difficulty", "quiz_mode", "quiz_loading",
	"quiz_playing", "quiz_result", "quiz_game_over", "quiz_leaderboard",
	"fm_radio", "fm_menu", "fm_preset",
}

func AllScreens() []Screen {
	out := make([]Screen, 0, screenCount)
	for s := Screen(0); s < screenCount; s++ {
		out = append(out, s)
	}
	return out
}

func (s Screen) Valid() bool { return s >= 0 && s < screenCount }

func (s Screen) String() string {
	if !s.Valid() {
		return fmt.Sprintf("screen(%d)", int(s))
	}
	return screenNames[s]
}

// Animated screens redraw on the fast cadence.
func (s Screen) Animated() bool {
	switch s {
	case ScreenBoot, ScreenLoading, ScreenQuizLoading, ScreenQuizPlaying, ScreenMusicPlayer:
		return true
	}
	return false
}

type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonOK
	ButtonBack

	ButtonCount
)

var buttonNames = [ButtonCount]string{"up", "down", "left", "right", "ok", "back"}

func (b Button) String() string {
	if b < 0 || b >= ButtonCount {
		return fmt.Sprintf("button(%d)", int(b))
	}
	return buttonNames[b]
}

func ParseButton(raw string) (Button, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "enter", "select":
		return ButtonOK, nil
	case "esc", "escape":
		return ButtonBack, nil
	}
	for i, n := range buttonNames {
		if n == name {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", raw)
}

// Frame is one full display refresh. Selected indexes Lines; -1 for none.
type Frame struct {
	Title    string
	Lines    []string
	Selected int
	Footer   string
	Status   string
	Spinner  bool
}
