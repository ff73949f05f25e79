package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aipocket/internal/aichat"
	"aipocket/internal/ui"

	"github.com/charmbracelet/x/ansi"
)

var modeItems = []string{aichat.ModeCompanion.String(), aichat.ModeStandard.String()}

func aiModeRoute() route {
	return list(ui.ScreenAIMode, ui.ScreenMainMenu,
		[]ui.Screen{ui.ScreenKeyboard},
		fixedCount(len(modeItems)),
		func(a *App, i int, _ time.Time) {
			a.chat.Mode = aichat.Mode(i)
			a.askPrompt()
		},
		func(a *App, _ time.Time) ui.Frame {
			return listFrame("AI MODE", modeItems, a.cursors[ui.ScreenAIMode], fmt.Sprintf("%d msgs", a.chat.Count()))
		})
}

func (a *App) askPrompt() {
	a.openKeyboard(ui.ScreenKeyboard, textTarget{
		title:  "ASK " + strings.ToUpper(a.chat.Mode.String()),
		cancel: ui.ScreenAIMode,
		commit: submitPrompt,
	})
}

func submitPrompt(a *App, text string, now time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		a.flash("Empty prompt", now)
		return
	}
	if !a.connected {
		a.flash(aichat.FailureText(aichat.ErrNotConnected), now)
		return
	}
	prompt := a.chat.BuildPrompt(text)
	a.pendingPrompt = text
	a.logger.Info("ai.request", map[string]any{"mode": a.chat.Mode.String(), "chars": len(prompt)})
	a.spawn(taskChat, ui.ScreenLoading, "Thinking", ui.ScreenAIMode, func(ctx context.Context) (any, error) {
		return a.ai.Generate(ctx, prompt)
	})
}

func (a *App) onReply(c completion, now time.Time) {
	if c.err != nil {
		a.logger.Warn("ai.request_failed", map[string]any{"error": c.err.Error()})
		a.flash(aichat.FailureText(c.err), now)
		a.setScreen(ui.ScreenAIMode)
		return
	}
	reply, _ := c.value.(string)
	a.chat.Record(a.pendingPrompt, reply)
	a.reply = reply
	a.scrolls[ui.ScreenChatResponse] = 0
	a.logger.Info("ai.reply", map[string]any{"chars": len(reply), "count": a.chat.Count()})
	a.setScreen(ui.ScreenChatResponse)
}

func chatResponseRoute() route {
	r := fixed(ui.ScreenAIMode, []ui.Screen{ui.ScreenKeyboard}, renderReply)
	r.on[ui.ButtonUp] = func(a *App, _ time.Time) { a.scrollReply(-1) }
	r.on[ui.ButtonDown] = func(a *App, _ time.Time) { a.scrollReply(1) }
	r.on[ui.ButtonOK] = func(a *App, _ time.Time) { a.askPrompt() }
	return r
}

func (a *App) replyLines() []string {
	return strings.Split(ansi.Wrap(a.reply, ui.DisplayCols, " -"), "\n")
}

func (a *App) scrollReply(delta int) {
	limit := max(len(a.replyLines())-(ui.DisplayRows-1), 0)
	a.scrolls[ui.ScreenChatResponse] = min(max(a.scrolls[ui.ScreenChatResponse]+delta, 0), limit)
}

func renderReply(a *App, _ time.Time) ui.Frame {
	lines := a.replyLines()
	rows := ui.DisplayRows - 1
	start := min(a.scrolls[ui.ScreenChatResponse], max(len(lines)-rows, 0))
	end := min(start+rows, len(lines))
	f := textFrame("AI: "+a.chat.Mode.String(), lines[start:end]...)
	f.Footer = fmt.Sprintf("%d/%d OK reply", min(end, len(lines)), len(lines))
	return f
}
