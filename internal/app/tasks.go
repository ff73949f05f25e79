package app

import (
	"context"
	"errors"
	"time"

	"aipocket/internal/ui"
)

// spawn starts blocking work behind a loading screen. BACK on that screen
// cancels it and returns to back.
func (a *App) spawn(kind taskKind, loading ui.Screen, label string, back ui.Screen, fn func(ctx context.Context) (any, error)) {
	a.startTask(kind, label, back, false, fn)
	a.setScreen(loading)
}

// startTask replaces any running task. The goroutine posts exactly one
// completion, or gives up once the app has stopped.
func (a *App) startTask(kind taskKind, label string, back ui.Screen, quiet bool, fn func(ctx context.Context) (any, error)) {
	a.cancelTask()
	a.taskSeq++
	ctx, cancel := context.WithCancel(a.baseCtx)
	t := &task{id: a.taskSeq, kind: kind, label: label, back: back, quiet: quiet, started: a.now(), cancel: cancel}
	a.task = t
	a.logger.Debug("task.start", map[string]any{"id": t.id, "kind": kind.String()})
	go func() {
		v, err := fn(ctx)
		select {
		case a.done <- completion{id: t.id, kind: t.kind, value: v, err: err}:
		case <-a.stopped:
		}
	}()
}

func (a *App) cancelTask() {
	if a.task == nil {
		return
	}
	a.logger.Debug("task.cancel", map[string]any{"id": a.task.id, "kind": a.task.kind.String()})
	a.task.cancel()
	a.task = nil
}

// complete applies the result of the current task. Results of replaced or
// cancelled tasks are dropped.
func (a *App) complete(c completion, now time.Time) {
	if a.task == nil || c.id != a.task.id {
		a.logger.Debug("task.stale", map[string]any{"id": c.id, "kind": c.kind.String()})
		return
	}
	t := a.task
	a.task = nil
	t.cancel()
	fields := map[string]any{"id": c.id, "kind": c.kind.String(), "ms": now.Sub(t.started).Milliseconds()}
	if c.err != nil {
		fields["error"] = c.err.Error()
	}
	a.logger.Debug("task.done", fields)

	switch c.kind {
	case taskScan:
		a.onScanned(c, now)
	case taskJoin:
		a.onJoined(c, now)
	case taskRejoin:
		a.onRejoined(c, now)
	case taskChat:
		a.onReply(c, now)
	case taskTrivia:
		a.onQuestion(c, now)
	case taskSeek:
		a.onSeek(c, now)
	}
	a.dirty = true
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
