package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aipocket/internal/hw"
	"aipocket/internal/media"
	"aipocket/internal/ui"
)

func fmRadioRoute() route {
	r := fixed(ui.ScreenMainMenu, []ui.Screen{ui.ScreenFMMenu}, renderFM)
	r.on[ui.ButtonLeft] = func(a *App, now time.Time) { a.fmErr(a.fm.Step(-1), now) }
	r.on[ui.ButtonRight] = func(a *App, now time.Time) { a.fmErr(a.fm.Step(1), now) }
	r.on[ui.ButtonUp] = func(a *App, now time.Time) { a.fmErr(a.fm.AdjustVolume(1), now) }
	r.on[ui.ButtonDown] = func(a *App, now time.Time) { a.fmErr(a.fm.AdjustVolume(-1), now) }
	r.on[ui.ButtonOK] = goTo(ui.ScreenFMMenu)
	return r
}

func (a *App) fmErr(err error, now time.Time) {
	if err == nil {
		return
	}
	a.logger.Warn("fm.command_failed", map[string]any{"error": err.Error()})
	if errors.Is(err, media.ErrNoTuner) {
		a.flash("No FM tuner", now)
		return
	}
	a.flash("Tuner error", now)
}

func renderFM(a *App, _ time.Time) ui.Frame {
	freq := a.fm.Frequency()
	name := ""
	for _, p := range a.fm.Presets() {
		if p.Freq == freq {
			name = p.Name
			break
		}
	}
	signal := 0
	if a.hw.Tuner != nil {
		signal = a.hw.Tuner.SignalStrength()
	}
	bars := min(signal/10, 5)
	vol := fmt.Sprintf("Vol %d", a.fm.Volume)
	if a.fm.Muted {
		vol = "Muted"
	}
	f := textFrame("FM RADIO",
		"",
		hw.FormatFM(freq),
		name,
		"Sig "+strings.Repeat("#", bars)+strings.Repeat(".", 5-bars),
		vol,
	)
	f.Footer = "<> tune OK menu"
	return f
}

func fmMenuItems(a *App) []string {
	return []string{"Seek Up", "Seek Down", "Presets", "Save Preset", "Mute: " + onOff(a.fm.Muted), "Exit"}
}

func fmMenuRoute() route {
	return list(ui.ScreenFMMenu, ui.ScreenFMRadio,
		[]ui.Screen{ui.ScreenLoading, ui.ScreenFMPreset, ui.ScreenKeyboard, ui.ScreenMainMenu},
		fixedCount(6), pickFMMenu,
		func(a *App, _ time.Time) ui.Frame {
			return listFrame("FM MENU", fmMenuItems(a), a.cursors[ui.ScreenFMMenu], hw.FormatFM(a.fm.Frequency()))
		})
}

func pickFMMenu(a *App, i int, now time.Time) {
	switch i {
	case 0, 1:
		up := i == 0
		fm := a.fm
		a.spawn(taskSeek, ui.ScreenLoading, "Seeking", ui.ScreenFMMenu, func(ctx context.Context) (any, error) {
			return fm.Seek(ctx, up)
		})
	case 2:
		a.cursors[ui.ScreenFMPreset] = 0
		a.setScreen(ui.ScreenFMPreset)
	case 3:
		a.openKeyboard(ui.ScreenKeyboard, textTarget{
			title:  "PRESET " + hw.FormatFM(a.fm.Frequency()),
			maxLen: 12,
			cancel: ui.ScreenFMMenu,
			commit: savePreset,
		})
	case 4:
		a.fmErr(a.fm.ToggleMute(), now)
	case 5:
		a.setScreen(ui.ScreenMainMenu)
	}
}

func savePreset(a *App, text string, now time.Time) {
	i, err := a.fm.SavePreset(a.baseCtx, text)
	switch {
	case errors.Is(err, media.ErrPresetsFull):
		a.flash("Presets full", now)
	case err != nil:
		a.fmErr(err, now)
	default:
		a.logger.Info("fm.preset_saved", map[string]any{"index": i, "freq": a.fm.Frequency()})
		a.flash(fmt.Sprintf("Saved P%d", i+1), now)
	}
}

func (a *App) onSeek(c completion, now time.Time) {
	if c.err != nil {
		if !cancelled(c.err) {
			a.logger.Info("fm.seek_failed", map[string]any{"error": c.err.Error()})
			a.flash("No station", now)
		}
		a.setScreen(ui.ScreenFMMenu)
		return
	}
	freq, _ := c.value.(int)
	a.flash(hw.FormatFM(freq), now)
	a.setScreen(ui.ScreenFMRadio)
}

func fmPresetRoute() route {
	count := func(a *App) int { return len(a.fm.Presets()) }
	r := list(ui.ScreenFMPreset, ui.ScreenFMMenu, []ui.Screen{ui.ScreenFMRadio}, count,
		func(a *App, i int, now time.Time) {
			if err := a.fm.Recall(i); err != nil {
				a.fmErr(err, now)
				return
			}
			a.setScreen(ui.ScreenFMRadio)
		},
		func(a *App, _ time.Time) ui.Frame {
			presets := a.fm.Presets()
			items := make([]string, len(presets))
			for i, p := range presets {
				items[i] = fmt.Sprintf("%d %s", i+1, p.Label())
			}
			return listFrame("PRESETS", items, a.cursors[ui.ScreenFMPreset], "OK tune > del")
		})
	r.on[ui.ButtonRight] = func(a *App, now time.Time) {
		n := count(a)
		if n == 0 {
			return
		}
		i := min(a.cursors[ui.ScreenFMPreset], n-1)
		if err := a.fm.DeletePreset(a.baseCtx, i); err != nil {
			a.fmErr(err, now)
			return
		}
		a.cursors[ui.ScreenFMPreset] = max(min(i, n-2), 0)
		a.flash("Deleted", now)
	}
	return r
}
