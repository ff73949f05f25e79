package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aipocket/internal/hw"
	"aipocket/internal/state"
	"aipocket/internal/ui"
)

const networksPerPage = 4

var wifiItems = []string{"Scan", "Forget", "Back"}

func wifiMenuRoute() route {
	return list(ui.ScreenWiFiMenu, ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenLoading},
		fixedCount(len(wifiItems)), pickWiFi,
		func(a *App, _ time.Time) ui.Frame {
			footer := "Not connected"
			if a.connected {
				footer = "On " + a.savedSSID
			}
			return listFrame("WIFI", wifiItems, a.cursors[ui.ScreenWiFiMenu], footer)
		})
}

func pickWiFi(a *App, i int, now time.Time) {
	switch i {
	case 0:
		n := a.hw.Network
		if n == nil {
			a.flash("WiFi unavailable", now)
			return
		}
		a.spawn(taskScan, ui.ScreenLoading, "Scanning", ui.ScreenWiFiMenu, func(ctx context.Context) (any, error) {
			aps, err := n.Scan(ctx)
			if err != nil {
				return nil, err
			}
			return hw.RankNetworks(aps, hw.MaxNetworks), nil
		})
	case 1:
		a.forgetNetwork(now)
	case 2:
		a.setScreen(ui.ScreenMainMenu)
	}
}

func (a *App) forgetNetwork(now time.Time) {
	if a.hw.Network != nil {
		if err := a.hw.Network.Disconnect(); err != nil {
			a.logger.Warn("wifi.disconnect_failed", map[string]any{"error": err.Error()})
		}
	}
	a.connected = false
	a.savedSSID, a.savedPassword = "", ""
	for _, key := range []string{prefSSID, prefPassword} {
		if err := a.store.PutString(a.baseCtx, state.NamespaceConfig, key, ""); err != nil {
			a.logger.Error("prefs.save_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	a.logger.Info("wifi.forgotten", nil)
	a.flash("Network forgotten", now)
}

func (a *App) onScanned(c completion, now time.Time) {
	if c.err != nil {
		if !cancelled(c.err) {
			a.logger.Warn("wifi.scan_failed", map[string]any{"error": c.err.Error()})
			a.flash("Scan failed", now)
		}
		a.setScreen(ui.ScreenWiFiMenu)
		return
	}
	aps, _ := c.value.([]hw.AccessPoint)
	if len(aps) == 0 {
		a.flash("No networks", now)
		a.setScreen(ui.ScreenWiFiMenu)
		return
	}
	a.networks = aps
	a.cursors[ui.ScreenWiFiScan] = 0
	a.setScreen(ui.ScreenWiFiScan)
}

func wifiScanRoute() route {
	count := func(a *App) int { return len(a.networks) }
	r := list(ui.ScreenWiFiScan, ui.ScreenWiFiMenu,
		[]ui.Screen{ui.ScreenWiFiPassword, ui.ScreenLoading},
		count, pickNetwork, renderScan)
	r.on[ui.ButtonLeft] = func(a *App, _ time.Time) { a.pageNetworks(-1) }
	r.on[ui.ButtonRight] = func(a *App, _ time.Time) { a.pageNetworks(1) }
	return r
}

func (a *App) pageNetworks(delta int) {
	n := len(a.networks)
	if n == 0 {
		return
	}
	pages := (n + networksPerPage - 1) / networksPerPage
	page := (a.cursors[ui.ScreenWiFiScan]/networksPerPage + delta + pages) % pages
	a.cursors[ui.ScreenWiFiScan] = page * networksPerPage
}

func pickNetwork(a *App, i int, now time.Time) {
	ap := a.networks[i]
	if !ap.Secured {
		a.join(ap.SSID, "", now)
		return
	}
	ssid := ap.SSID
	a.openKeyboard(ui.ScreenWiFiPassword, textTarget{
		title:  ssid,
		masked: true,
		maxLen: 63,
		cancel: ui.ScreenWiFiScan,
		commit: func(a *App, text string, now time.Time) { a.join(ssid, text, now) },
	})
}

func renderScan(a *App, _ time.Time) ui.Frame {
	n := len(a.networks)
	if n == 0 {
		return textFrame("NETWORKS", "(none)")
	}
	cursor := min(a.cursors[ui.ScreenWiFiScan], n-1)
	page := cursor / networksPerPage
	start := page * networksPerPage
	end := min(start+networksPerPage, n)
	lines := make([]string, 0, networksPerPage)
	for _, ap := range a.networks[start:end] {
		lock := " "
		if ap.Secured {
			lock = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%-14.14s%4d", lock, ap.SSID, ap.RSSI))
	}
	pages := (n + networksPerPage - 1) / networksPerPage
	return ui.Frame{
		Title:    "NETWORKS",
		Lines:    lines,
		Selected: cursor - start,
		Footer:   fmt.Sprintf("Page %d/%d", page+1, pages),
	}
}

// join associates in the background and returns to the WiFi menu.
func (a *App) join(ssid, password string, now time.Time) {
	if a.hw.Network == nil {
		a.flash("WiFi unavailable", now)
		return
	}
	req := joinRequest{ssid: ssid, password: password}
	a.spawn(taskJoin, ui.ScreenLoading, "Joining "+ssid, ui.ScreenWiFiScan, func(ctx context.Context) (any, error) {
		return req, a.connect(ctx, req)
	})
}

func (a *App) connect(ctx context.Context, req joinRequest) error {
	backoff := time.Duration(a.cfg.WiFi.JoinBackoffMS) * time.Millisecond
	return hw.Connect(ctx, a.hw.Network, req.ssid, req.password, a.cfg.WiFi.JoinAttempts, backoff)
}

func (a *App) onJoined(c completion, now time.Time) {
	req, _ := c.value.(joinRequest)
	a.setScreen(ui.ScreenWiFiMenu)
	if c.err != nil {
		a.connected = false
		a.logger.Warn("wifi.join_failed", map[string]any{"ssid": req.ssid, "error": c.err.Error()})
		switch {
		case cancelled(c.err):
		case errors.Is(c.err, hw.ErrJoinTimeout):
			a.flash("Join timed out", now)
		default:
			a.flash("Join failed", now)
		}
		return
	}
	a.connected = true
	a.savedSSID, a.savedPassword = req.ssid, req.password
	for key, value := range map[string]string{prefSSID: req.ssid, prefPassword: req.password} {
		if err := a.store.PutString(a.baseCtx, state.NamespaceConfig, key, value); err != nil {
			a.logger.Error("prefs.save_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}
	a.logger.Info("wifi.joined", map[string]any{"ssid": req.ssid})
	a.flash("Connected", now)
}

func (a *App) onRejoined(c completion, now time.Time) {
	req, _ := c.value.(joinRequest)
	if c.err != nil {
		a.logger.Warn("wifi.rejoin_failed", map[string]any{"ssid": req.ssid, "error": c.err.Error()})
		return
	}
	a.connected = true
	a.logger.Info("wifi.rejoined", map[string]any{"ssid": req.ssid})
	a.flash("WiFi "+req.ssid, now)
}
