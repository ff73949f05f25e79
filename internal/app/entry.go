package app

import (
	"time"

	"aipocket/internal/keyboard"
	"aipocket/internal/ui"
)

func (a *App) openKeyboard(screen ui.Screen, t textTarget) {
	a.entry = keyboard.New(t.initial, t.masked)
	if t.maxLen > 0 {
		a.entry.MaxLen = t.maxLen
	}
	a.target = t
	a.setScreen(screen)
}

func keyboardRoute(self ui.Screen) route {
	next := []ui.Screen{
		ui.ScreenAIMode, ui.ScreenLoading, ui.ScreenWiFiScan, ui.ScreenPeerChat, ui.ScreenPeerMenu,
		ui.ScreenMusicMenu, ui.ScreenFMMenu,
	}
	r := route{parent: ui.ScreenMainMenu, next: next, render: renderKeyboard}
	move := func(dRow, dCol int) action {
		return func(a *App, _ time.Time) {
			if a.entry != nil {
				a.entry.Move(dRow, dCol)
			}
		}
	}
	r.on[ui.ButtonUp] = move(-1, 0)
	r.on[ui.ButtonDown] = move(1, 0)
	r.on[ui.ButtonLeft] = move(0, -1)
	r.on[ui.ButtonRight] = move(0, 1)
	r.on[ui.ButtonOK] = pressKey
	r.on[ui.ButtonBack] = func(a *App, _ time.Time) {
		a.entry = nil
		a.setScreen(a.target.cancel)
	}
	return r
}

func pressKey(a *App, now time.Time) {
	if a.entry == nil {
		a.setScreen(a.target.cancel)
		return
	}
	switch a.entry.Press() {
	case keyboard.Confirmed:
		text, t := a.entry.Buffer, a.target
		a.entry = nil
		a.setScreen(t.cancel)
		if t.commit != nil {
			t.commit(a, text, now)
		}
	case keyboard.Full:
		a.flash("Text full", now)
	}
}

func renderKeyboard(a *App, _ time.Time) ui.Frame {
	if a.entry == nil {
		return textFrame(a.target.title)
	}
	shown := a.entry.Display(ui.DisplayCols - 1)
	lines := append([]string{shown + "_", ""}, a.entry.CompactLines()...)
	f := textFrame(a.target.title, lines...)
	key := a.entry.Key()
	if key == " " {
		key = "space"
	}
	f.Footer = a.entry.Layer.String() + "  " + key
	return f
}
