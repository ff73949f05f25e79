package app

import (
	"fmt"
	"time"

	"aipocket/internal/ui"

	"github.com/dustin/go-humanize"
)

var mainItems = []string{"AI CHAT", "WIFI", "PEER CHAT", "MUSIC", "FM RADIO", "TRIVIA", "SYSTEM"}

func bootRoute() route {
	return fixed(ui.ScreenBoot, nil, func(a *App, _ time.Time) ui.Frame {
		f := textFrame("AI POCKET", "", "Starting up...")
		f.Spinner = true
		return f
	})
}

func mainMenuRoute() route {
	r := list(ui.ScreenMainMenu, ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenAIMode, ui.ScreenWiFiMenu, ui.ScreenPeerMenu, ui.ScreenMusicPlayer, ui.ScreenFMRadio, ui.ScreenQuizMenu, ui.ScreenSystemInfo},
		fixedCount(len(mainItems)), pickMain, renderMain)
	r.on[ui.ButtonBack] = noop
	return r
}

func pickMain(a *App, i int, now time.Time) {
	switch i {
	case 0:
		if !a.connected {
			a.flash("WiFi not connected", now)
			return
		}
		a.cursors[ui.ScreenAIMode] = int(a.chat.Mode)
		a.setScreen(ui.ScreenAIMode)
	case 1:
		a.setScreen(ui.ScreenWiFiMenu)
	case 2:
		if !a.radioUp {
			a.flash("Radio unavailable", now)
			return
		}
		a.setScreen(ui.ScreenPeerMenu)
	case 3:
		if !a.player.Available() {
			a.flash("No audio module", now)
			return
		}
		a.setScreen(ui.ScreenMusicPlayer)
	case 4:
		if !a.fm.Available() {
			a.flash("No FM tuner", now)
			return
		}
		a.setScreen(ui.ScreenFMRadio)
	case 5:
		a.setScreen(ui.ScreenQuizMenu)
	case 6:
		a.setScreen(ui.ScreenSystemInfo)
	}
}

func renderMain(a *App, _ time.Time) ui.Frame {
	items := make([]string, len(mainItems))
	for i, label := range mainItems {
		off := (i == 0 && !a.connected) || (i == 2 && !a.radioUp) || (i == 3 && !a.player.Available()) || (i == 4 && !a.fm.Available())
		if off {
			label += " -"
		}
		items[i] = label
	}
	footer := "WiFi off"
	if a.connected {
		footer = "WiFi " + a.savedSSID
	}
	if a.caps.Battery {
		footer = fmt.Sprintf("%s %d%%", footer, a.batteryPct)
	}
	return listFrame("AI POCKET", items, a.cursors[ui.ScreenMainMenu], footer)
}

func loadingRoute() route {
	r := fixed(ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenAIMode, ui.ScreenChatResponse, ui.ScreenWiFiMenu, ui.ScreenWiFiScan, ui.ScreenFMMenu, ui.ScreenFMRadio},
		renderLoading)
	r.on[ui.ButtonBack] = func(a *App, now time.Time) {
		back := ui.ScreenMainMenu
		if a.task != nil && !a.task.quiet {
			back = a.task.back
		}
		a.cancelTask()
		a.flash("Cancelled", now)
		a.setScreen(back)
	}
	return r
}

func renderLoading(a *App, now time.Time) ui.Frame {
	label := "Working"
	var elapsed time.Duration
	if a.task != nil {
		label = a.task.label
		elapsed = now.Sub(a.task.started)
	}
	f := textFrame("PLEASE WAIT", "", label, fmt.Sprintf("%ds", int(elapsed.Seconds())))
	f.Spinner = true
	f.Footer = "BACK cancel"
	return f
}

func systemRoute() route {
	r := fixed(ui.ScreenMainMenu, nil, renderSystem)
	r.on[ui.ButtonOK] = func(a *App, now time.Time) {
		a.chat.Clear()
		a.reply = ""
		a.logger.Info("ai.history_cleared", nil)
		a.flash("History cleared", now)
	}
	return r
}

func renderSystem(a *App, _ time.Time) ui.Frame {
	lines := make([]string, 0, ui.DisplayRows)
	if a.caps.Battery {
		lines = append(lines, fmt.Sprintf("Battery %d%%", a.batteryPct))
	} else {
		lines = append(lines, "Battery n/a")
	}
	if sys := a.hw.System; sys != nil {
		lines = append(lines,
			fmt.Sprintf("Temp %.1fC", sys.TemperatureC()),
			"Free "+humanize.IBytes(sys.FreeMemory()),
			"Up "+sys.Uptime().Truncate(time.Second).String(),
		)
	}
	lines = append(lines,
		fmt.Sprintf("AI msgs %d", a.chat.Count()),
		fmt.Sprintf("Peers %d", a.peers.PeerCount()),
	)
	f := textFrame("SYSTEM", lines...)
	f.Footer = "OK clear chat"
	return f
}
