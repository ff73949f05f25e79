package app

import (
	"time"

	"aipocket/internal/ui"
)

type action func(a *App, now time.Time)

// route is one row of the transition table. next lists every screen an
// action may move to besides parent; tests walk it for reachability.
type route struct {
	parent ui.Screen
	next   []ui.Screen
	on     [ui.ButtonCount]action
	render func(a *App, now time.Time) ui.Frame
}

var routes map[ui.Screen]route

func init() {
	routes = map[ui.Screen]route{
		ui.ScreenBoot:       bootRoute(),
		ui.ScreenMainMenu:   mainMenuRoute(),
		ui.ScreenLoading:    loadingRoute(),
		ui.ScreenSystemInfo: systemRoute(),

		ui.ScreenAIMode:       aiModeRoute(),
		ui.ScreenChatResponse: chatResponseRoute(),
		ui.ScreenKeyboard:     keyboardRoute(ui.ScreenKeyboard),

		ui.ScreenWiFiMenu:     wifiMenuRoute(),
		ui.ScreenWiFiScan:     wifiScanRoute(),
		ui.ScreenWiFiPassword: keyboardRoute(ui.ScreenWiFiPassword),

		ui.ScreenPeerMenu: peerMenuRoute(),
		ui.ScreenPeerChat: peerChatRoute(),
		ui.ScreenPeerList: peerListRoute(),

		ui.ScreenMusicPlayer:    musicPlayerRoute(),
		ui.ScreenMusicMenu:      musicMenuRoute(),
		ui.ScreenMusicPlaylist:  playlistRoute(),
		ui.ScreenMusicEqualizer: equalizerRoute(),

		ui.ScreenFMRadio:  fmRadioRoute(),
		ui.ScreenFMMenu:   fmMenuRoute(),
		ui.ScreenFMPreset: fmPresetRoute(),

		ui.ScreenQuizMenu:        quizMenuRoute(),
		ui.ScreenQuizCategory:    quizCategoryRoute(),
		ui.ScreenQuizDifficulty:  quizDifficultyRoute(),
		ui.ScreenQuizMode:        quizModeRoute(),
		ui.ScreenQuizLoading:     quizLoadingRoute(),
		ui.ScreenQuizPlaying:     quizPlayingRoute(),
		ui.ScreenQuizResult:      quizResultRoute(),
		ui.ScreenQuizGameOver:    gameOverRoute(),
		ui.ScreenQuizLeaderboard: leaderboardRoute(),
	}
}

func noop(*App, time.Time) {}

func goTo(s ui.Screen) action {
	return func(a *App, _ time.Time) { a.setScreen(s) }
}

// fixed fills every button with noop, then BACK with the parent.
func fixed(parent ui.Screen, next []ui.Screen, render func(*App, time.Time) ui.Frame) route {
	r := route{parent: parent, next: next, render: render}
	for i := range r.on {
		r.on[i] = noop
	}
	r.on[ui.ButtonBack] = goTo(parent)
	return r
}

// list is a vertical menu: UP and DOWN wrap the cursor, OK picks the row.
func list(self, parent ui.Screen, next []ui.Screen, count func(*App) int, pick func(a *App, i int, now time.Time), render func(*App, time.Time) ui.Frame) route {
	r := fixed(parent, next, render)
	r.on[ui.ButtonUp] = func(a *App, _ time.Time) { a.moveCursor(self, -1, count(a)) }
	r.on[ui.ButtonDown] = func(a *App, _ time.Time) { a.moveCursor(self, 1, count(a)) }
	r.on[ui.ButtonOK] = func(a *App, now time.Time) {
		n := count(a)
		if n == 0 {
			return
		}
		pick(a, min(a.cursors[self], n-1), now)
	}
	return r
}

func fixedCount(n int) func(*App) int {
	return func(*App) int { return n }
}

func (a *App) moveCursor(s ui.Screen, delta, n int) {
	if n <= 0 {
		a.cursors[s] = 0
		return
	}
	c := (a.cursors[s] + delta) % n
	if c < 0 {
		c += n
	}
	a.cursors[s] = c
}

func textFrame(title string, lines ...string) ui.Frame {
	return ui.Frame{Title: title, Lines: lines, Selected: -1}
}

// listFrame windows items around cursor so the selection stays visible.
func listFrame(title string, items []string, cursor int, footer string) ui.Frame {
	rows := ui.DisplayRows
	if footer != "" {
		rows--
	}
	if len(items) == 0 {
		f := textFrame(title, "(empty)")
		f.Footer = footer
		return f
	}
	cursor = min(max(cursor, 0), len(items)-1)
	start := 0
	if cursor >= rows {
		start = cursor - rows + 1
	}
	end := min(start+rows, len(items))
	return ui.Frame{Title: title, Lines: items[start:end], Selected: cursor - start, Footer: footer}
}

// tail windows lines so that offset lines from the bottom are hidden.
func tail(lines []string, offset, rows int) []string {
	if len(lines) <= rows {
		return lines
	}
	offset = min(max(offset, 0), len(lines)-rows)
	end := len(lines) - offset
	return lines[end-rows : end]
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
