package app

import (
	"fmt"
	"time"

	"aipocket/internal/media"
	"aipocket/internal/ui"
)

func musicPlayerRoute() route {
	r := fixed(ui.ScreenMusicMenu, nil, renderPlayer)
	r.on[ui.ButtonUp] = func(a *App, now time.Time) { a.musicErr(a.player.AdjustVolume(1), now) }
	r.on[ui.ButtonDown] = func(a *App, now time.Time) { a.musicErr(a.player.AdjustVolume(-1), now) }
	r.on[ui.ButtonLeft] = func(a *App, now time.Time) {
		_, err := a.player.Prev(now)
		a.musicErr(err, now)
	}
	r.on[ui.ButtonRight] = func(a *App, now time.Time) {
		_, err := a.player.Next(now)
		a.musicErr(err, now)
	}
	r.on[ui.ButtonOK] = func(a *App, now time.Time) { a.musicErr(a.player.PlayPause(), now) }
	return r
}

func (a *App) musicErr(err error, now time.Time) {
	if err == nil {
		return
	}
	a.logger.Warn("music.command_failed", map[string]any{"error": err.Error()})
	a.flash("Audio error", now)
}

func renderPlayer(a *App, _ time.Time) ui.Frame {
	p := a.player
	state := "|| Paused"
	if p.Playing {
		state = "> Playing"
	}
	flags := ""
	if p.Shuffle {
		flags += "SHUF "
	}
	if p.Repeat {
		flags += "RPT"
	}
	f := textFrame("MUSIC",
		p.TrackName(p.Current),
		fmt.Sprintf("Track %d/%d", p.Current, p.Tracks),
		state,
		fmt.Sprintf("Vol %d/%d", p.Volume, media.MaxVolume),
		"EQ "+media.EQNames[p.EQ],
		flags,
	)
	f.Footer = "BACK menu"
	return f
}

func musicMenuItems(a *App) []string {
	return []string{
		"Playlist",
		"Equalizer",
		"Shuffle: " + onOff(a.player.Shuffle),
		"Repeat: " + onOff(a.player.Repeat),
		"Rename Track",
		"Exit",
	}
}

func musicMenuRoute() route {
	return list(ui.ScreenMusicMenu, ui.ScreenMusicPlayer,
		[]ui.Screen{ui.ScreenMusicPlaylist, ui.ScreenMusicEqualizer, ui.ScreenKeyboard, ui.ScreenMainMenu},
		fixedCount(6), pickMusicMenu,
		func(a *App, _ time.Time) ui.Frame {
			return listFrame("MUSIC MENU", musicMenuItems(a), a.cursors[ui.ScreenMusicMenu], "")
		})
}

func pickMusicMenu(a *App, i int, now time.Time) {
	switch i {
	case 0:
		a.cursors[ui.ScreenMusicPlaylist] = max(a.player.Current-1, 0)
		a.setScreen(ui.ScreenMusicPlaylist)
	case 1:
		a.cursors[ui.ScreenMusicEqualizer] = a.player.EQ
		a.setScreen(ui.ScreenMusicEqualizer)
	case 2:
		a.player.ToggleShuffle()
		a.flash("Shuffle "+onOff(a.player.Shuffle), now)
	case 3:
		a.player.ToggleRepeat()
		a.flash("Repeat "+onOff(a.player.Repeat), now)
	case 4:
		track := a.player.Current
		a.openKeyboard(ui.ScreenKeyboard, textTarget{
			title:   fmt.Sprintf("TRACK %d", track),
			initial: a.player.TrackName(track),
			maxLen:  20,
			cancel:  ui.ScreenMusicMenu,
			commit: func(a *App, text string, now time.Time) {
				if err := a.player.RenameTrack(a.baseCtx, track, text); err != nil {
					a.logger.Warn("music.rename_failed", map[string]any{"track": track, "error": err.Error()})
					a.flash("Rename failed", now)
					return
				}
				a.flash("Saved", now)
			},
		})
	case 5:
		a.setScreen(ui.ScreenMainMenu)
	}
}

func playlistRoute() route {
	count := func(a *App) int { return a.player.Tracks }
	return list(ui.ScreenMusicPlaylist, ui.ScreenMusicMenu, []ui.Screen{ui.ScreenMusicPlayer}, count,
		func(a *App, i int, now time.Time) {
			if err := a.player.Select(i + 1); err != nil {
				a.musicErr(err, now)
				return
			}
			a.setScreen(ui.ScreenMusicPlayer)
		},
		func(a *App, _ time.Time) ui.Frame {
			items := make([]string, a.player.Tracks)
			for i := range items {
				mark := " "
				if i+1 == a.player.Current {
					mark = "*"
				}
				items[i] = fmt.Sprintf("%s%2d %s", mark, i+1, a.player.TrackName(i+1))
			}
			return listFrame("PLAYLIST", items, a.cursors[ui.ScreenMusicPlaylist], "")
		})
}

// The equalizer applies as the cursor moves; OK just confirms.
func equalizerRoute() route {
	r := list(ui.ScreenMusicEqualizer, ui.ScreenMusicMenu, nil, fixedCount(len(media.EQNames)),
		func(a *App, i int, now time.Time) {
			a.flash("EQ "+media.EQNames[a.player.EQ], now)
			a.setScreen(ui.ScreenMusicMenu)
		},
		func(a *App, _ time.Time) ui.Frame {
			return listFrame("EQUALIZER", media.EQNames, a.cursors[ui.ScreenMusicEqualizer], "")
		})
	step := func(delta int) action {
		return func(a *App, now time.Time) {
			a.moveCursor(ui.ScreenMusicEqualizer, delta, len(media.EQNames))
			a.musicErr(a.player.SetEQ(a.cursors[ui.ScreenMusicEqualizer]), now)
		}
	}
	r.on[ui.ButtonUp] = step(-1)
	r.on[ui.ButtonDown] = step(1)
	return r
}
