package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aipocket/internal/peer"
	"aipocket/internal/radio"
	"aipocket/internal/ui"

	"github.com/charmbracelet/x/ansi"
)

const sendTimeout = 2 * time.Second

var peerItems = []string{"Chat", "View Peers", "Nickname", "Back"}

func peerMenuRoute() route {
	return list(ui.ScreenPeerMenu, ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenPeerChat, ui.ScreenPeerList, ui.ScreenKeyboard},
		fixedCount(len(peerItems)), pickPeerMenu,
		func(a *App, _ time.Time) ui.Frame {
			return listFrame("PEER CHAT", peerItems, a.cursors[ui.ScreenPeerMenu], "Me: "+a.peers.Nickname())
		})
}

func pickPeerMenu(a *App, i int, now time.Time) {
	switch i {
	case 0:
		a.scrolls[ui.ScreenPeerChat] = 0
		a.setScreen(ui.ScreenPeerChat)
	case 1:
		a.setScreen(ui.ScreenPeerList)
	case 2:
		a.openKeyboard(ui.ScreenKeyboard, textTarget{
			title:   "NICKNAME",
			initial: a.peers.Nickname(),
			maxLen:  peer.MaxNicknameBytes,
			cancel:  ui.ScreenPeerMenu,
			commit:  commitNickname,
		})
	case 3:
		a.setScreen(ui.ScreenMainMenu)
	}
}

func commitNickname(a *App, text string, now time.Time) {
	err := a.peers.SetNickname(a.baseCtx, text)
	switch {
	case errors.Is(err, peer.ErrEmptyText):
		a.flash("Name empty", now)
	case err != nil:
		a.logger.Error("peer.nickname_failed", map[string]any{"error": err.Error()})
		a.flash("Save failed", now)
	default:
		a.logger.Info("peer.nickname", map[string]any{"nickname": a.peers.Nickname()})
		a.flash("Hi "+a.peers.Nickname(), now)
	}
}

func (a *App) peerTarget() peer.Target {
	if a.peerDirect {
		return peer.Directed(a.peerIndex)
	}
	return peer.Broadcast
}

func (a *App) targetLabel() string {
	if !a.peerDirect {
		return "ALL"
	}
	peers := a.peers.Snapshot().Peers
	if a.peerIndex < len(peers) {
		return peers[a.peerIndex].Nickname
	}
	return "?"
}

func peerChatRoute() route {
	r := fixed(ui.ScreenPeerMenu, []ui.Screen{ui.ScreenKeyboard}, renderPeerChat)
	toggle := func(a *App, now time.Time) {
		a.peerDirect = !a.peerDirect
		a.flash("To "+a.targetLabel(), now)
	}
	r.on[ui.ButtonLeft] = toggle
	r.on[ui.ButtonRight] = toggle
	r.on[ui.ButtonUp] = func(a *App, _ time.Time) { a.scrolls[ui.ScreenPeerChat]++ }
	r.on[ui.ButtonDown] = func(a *App, _ time.Time) {
		a.scrolls[ui.ScreenPeerChat] = max(a.scrolls[ui.ScreenPeerChat]-1, 0)
	}
	r.on[ui.ButtonOK] = func(a *App, _ time.Time) {
		a.openKeyboard(ui.ScreenKeyboard, textTarget{
			title:  "TO " + strings.ToUpper(a.targetLabel()),
			maxLen: peer.MaxTextBytes,
			cancel: ui.ScreenPeerChat,
			commit: sendPeer,
		})
	}
	return r
}

func sendPeer(a *App, text string, now time.Time) {
	ctx, cancel := context.WithTimeout(a.baseCtx, sendTimeout)
	defer cancel()
	err := a.peers.Send(ctx, text, a.peerTarget())
	switch {
	case err == nil:
		a.scrolls[ui.ScreenPeerChat] = 0
		a.seenMsgs = len(a.peers.Snapshot().Messages)
	case errors.Is(err, peer.ErrNoPeer):
		a.flash("No peer", now)
	case errors.Is(err, peer.ErrEmptyText):
		a.flash("Empty message", now)
	case errors.Is(err, peer.ErrRadioDown):
		a.flash("Radio down", now)
	default:
		a.flash("Send failed", now)
	}
}

func (a *App) chatLines() []string {
	snap := a.peers.Snapshot()
	lines := make([]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		who := m.Nickname
		if m.FromSelf {
			who = "me"
			if !m.To.IsBroadcast() {
				who = "me>" + nicknameOf(snap.Peers, m.To)
			}
		}
		wrapped := ansi.Wrap(who+": "+m.Text, ui.DisplayCols, " ")
		lines = append(lines, strings.Split(wrapped, "\n")...)
	}
	return lines
}

func nicknameOf(peers []peer.Peer, addr radio.Addr) string {
	for _, p := range peers {
		if p.Addr == addr {
			return p.Nickname
		}
	}
	return "?"
}

func renderPeerChat(a *App, _ time.Time) ui.Frame {
	lines := a.chatLines()
	rows := ui.DisplayRows - 1
	a.scrolls[ui.ScreenPeerChat] = min(a.scrolls[ui.ScreenPeerChat], max(len(lines)-rows, 0))
	f := textFrame("CHAT > "+a.targetLabel(), tail(lines, a.scrolls[ui.ScreenPeerChat], rows)...)
	if len(lines) == 0 {
		f.Lines = []string{"No messages yet"}
	}
	f.Footer = "L/R mode OK write"
	return f
}

func peerListRoute() route {
	count := func(a *App) int { return a.peers.PeerCount() }
	r := list(ui.ScreenPeerList, ui.ScreenPeerMenu, []ui.Screen{ui.ScreenPeerChat}, count, pickPeer, renderPeerList)
	r.on[ui.ButtonOK] = func(a *App, now time.Time) {
		n := count(a)
		if n == 0 {
			a.flash("No peers", now)
			return
		}
		pickPeer(a, min(a.cursors[ui.ScreenPeerList], n-1), now)
	}
	return r
}

func pickPeer(a *App, i int, now time.Time) {
	a.peerDirect = true
	a.peerIndex = i
	a.flash("To "+a.targetLabel(), now)
	a.setScreen(ui.ScreenPeerChat)
}

func renderPeerList(a *App, now time.Time) ui.Frame {
	snap := a.peers.Snapshot()
	items := make([]string, 0, len(snap.Peers))
	for _, p := range snap.Peers {
		mark := "-"
		if p.Active {
			mark = "+"
		}
		age := now.Sub(p.LastSeen).Truncate(time.Second)
		items = append(items, fmt.Sprintf("%s %-12.12s %s", mark, p.Nickname, shortAge(age)))
	}
	return listFrame(fmt.Sprintf("PEERS %d", len(items)), items, a.cursors[ui.ScreenPeerList], "Me "+snap.Local.Hex()[6:])
}

func shortAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}
