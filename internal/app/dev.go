package app

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"aipocket/internal/ui"
)

// applyScript resets to the main menu and replays a named scenario. It runs
// on the controller loop.
func (a *App) applyScript(requested string, now time.Time) string {
	sc := a.demo.Resolve(requested)
	a.logger.Info("dev.demo.dispatch.apply", map[string]any{"requested": requested, "resolved": sc.Name, "presses": len(sc.Presses)})
	a.cancelTask()
	a.quiz.Discard()
	a.entry = nil
	a.status = ""
	clear(a.cursors)
	clear(a.scrolls)
	a.setScreen(ui.ScreenMainMenu)
	for _, b := range sc.Presses {
		a.HandleInput(b, now)
	}
	a.Render(now)
	a.setDevState(a.screen.String(), sc.Name)
	if err := a.demo.SetState(a.baseCtx, a.cfg.DataDir, sc.Name, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": sc.Name, "error": err.Error()})
	}
	return sc.Name
}

func (a *App) runDemoScenario(ctx context.Context, requested string) (string, error) {
	a.setDevPending(requested)
	req := scriptRequest{name: requested, reply: make(chan string, 1)}
	select {
	case a.scripts <- req:
	case <-ctx.Done():
		a.setDevError(requested, ctx.Err().Error())
		return "", ctx.Err()
	}
	select {
	case resolved := <-req.reply:
		return resolved, nil
	case <-ctx.Done():
		a.setDevError(requested, ctx.Err().Error())
		return "", ctx.Err()
	}
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
}

func (a *App) setDevPending(demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
}

func (a *App) setDevError(demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.Demo = demo
	a.devState.Pending = false
	a.devState.Error = errText
}

func (a *App) getDevState() map[string]any {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"ok":         true,
		"session":    a.sessionID,
		"state":      a.devState.State,
		"demo":       a.devState.Demo,
		"frame":      a.devState.Frame,
		"render_seq": a.devState.RenderSeq,
		"rendered":   a.devState.Rendered,
		"pending":    a.devState.Pending,
		"error":      a.devState.Error,
	}
}

func (a *App) devHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.getDevState())
	})
	mux.HandleFunc("/__dev/press", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Button string `json:"button"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		b, err := ui.ParseButton(req.Button)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		a.logger.Info("dev.press", map[string]any{"button": b.String()})
		a.OnButton(b)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "button": b.String()})
	})
	mux.HandleFunc("/__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Demo string `json:"demo"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		req.Demo = strings.TrimSpace(req.Demo)
		if req.Demo == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "demo is required"})
			return
		}
		a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		resolved, err := a.runDemoScenario(ctx, req.Demo)
		if err != nil {
			a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": req.Demo, "error": err.Error()})
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
	})
	return mux
}

func (a *App) startDevHTTP() error {
	a.devServer = &http.Server{Addr: a.cfg.DevHTTP, Handler: a.devHandler(), ReadHeaderTimeout: 5 * time.Second}
	a.setDevState(a.screen.String(), a.cfg.DemoScenario)
	go func() {
		if err := a.devServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	a.logger.Info("dev_http.start", map[string]any{"addr": a.cfg.DevHTTP})
	return nil
}
