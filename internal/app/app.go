package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aipocket/internal/aichat"
	"aipocket/internal/devtools"
	"aipocket/internal/hw"
	"aipocket/internal/input"
	"aipocket/internal/keyboard"
	"aipocket/internal/media"
	"aipocket/internal/peer"
	"aipocket/internal/quiz"
	"aipocket/internal/radio"
	"aipocket/internal/state"
	"aipocket/internal/telemetry"
	"aipocket/internal/ui"

	"github.com/google/uuid"
)

const (
	statusTTL       = 2 * time.Second
	loopInterval    = 50 * time.Millisecond
	batteryInterval = 30 * time.Second

	prefSSID     = "ssid"
	prefPassword = "password"
)

type App struct {
	cfg Config

	logger *telemetry.Logger
	store  Store
	view   ui.View
	demo   Demo
	now    func() time.Time
	radio  radio.Radio

	sessionID string

	hw       hw.Peripherals
	caps     hw.Capabilities
	peers    *peer.Service
	radioUp  bool
	quiz     *quiz.Engine
	trivia   Trivia
	ai       Chat
	chat     aichat.Conversation
	player   *media.Player
	fm       *media.FM
	debounce *input.Debouncer

	screen      ui.Screen
	cursors     map[ui.Screen]int
	scrolls     map[ui.Screen]int
	status      string
	statusUntil time.Time
	dirty       bool
	lastRender  time.Time
	lastBattery time.Time
	batteryPct  int

	connected     bool
	savedSSID     string
	savedPassword string
	networks      []hw.AccessPoint

	entry  *keyboard.Entry
	target textTarget

	pendingPrompt string
	reply         string

	peerDirect bool
	peerIndex  int
	seenMsgs   int

	quizCategory   int
	quizDifficulty string
	quizMode       string
	lastOutcome    quiz.Outcome
	lastSession    quiz.Session
	lastUpdate     quiz.LeaderboardUpdate

	task    *task
	taskSeq uint64

	baseCtx    context.Context
	baseCancel context.CancelFunc
	buttons    chan ui.Button
	done       chan completion
	scripts    chan scriptRequest
	stopped    chan struct{}
	stopOnce   sync.Once

	devMu     sync.Mutex
	devServer *http.Server
	devState  struct {
		State     string
		Demo      string
		Frame     string
		RenderSeq int
		Rendered  bool
		Pending   bool
		Error     string
	}
}

func New(cfg Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		l, err := telemetry.New(telemetry.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	store := deps.Store
	if store == nil {
		s, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			_ = logger.Close()
			return nil, err
		}
		store = s
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	catalog := quiz.DefaultCatalog()
	if deps.Catalog != nil {
		catalog = *deps.Catalog
	} else if cfg.Trivia.CatalogPath != "" {
		c, err := quiz.LoadCatalog(cfg.Trivia.CatalogPath)
		if err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, fmt.Errorf("load quiz catalog: %w", err)
		}
		catalog = c
	}

	view := deps.View
	if view == nil {
		view = ui.NewRecorder(0)
	}
	demo := deps.Demo
	if demo == nil {
		demo = devtools.NewManager()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	ai := deps.AI
	if ai == nil {
		ai = aichat.NewClient(cfg.AI.Endpoint, cfg.AI.APIKey, time.Duration(cfg.AI.TimeoutSec)*time.Second)
	}
	trivia := deps.Trivia
	if trivia == nil {
		trivia = quiz.NewFetcher(cfg.Trivia.BaseURL, time.Duration(cfg.Trivia.TimeoutSec)*time.Second)
	}
	mode, _ := parsePersona(cfg.AI.Persona)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		view:      view,
		demo:      demo,
		now:       now,
		radio:     deps.Radio,
		sessionID: uuid.NewString(),
		hw:        deps.Hardware,
		quiz:      quiz.NewEngine(catalog, store, logger),
		trivia:    trivia,
		ai:        ai,
		chat:      aichat.Conversation{Mode: mode},
		player:    media.NewPlayer(nil, store),
		fm:        media.NewFM(nil, store),
		debounce:  input.NewDebouncer(time.Duration(cfg.Input.DebounceMS) * time.Millisecond),
		screen:    ui.ScreenBoot,
		cursors:   map[ui.Screen]int{},
		scrolls:   map[ui.Screen]int{},
		dirty:     true,
		buttons:   make(chan ui.Button, 8),
		done:      make(chan completion, 4),
		scripts:   make(chan scriptRequest),
		stopped:   make(chan struct{}),
	}
	a.baseCtx, a.baseCancel = context.WithCancel(context.Background())
	a.peers = peer.NewService(peer.Config{
		BeaconInterval: time.Duration(cfg.Radio.BeaconSec) * time.Second,
		StaleAfter:     time.Duration(cfg.Radio.StaleSec) * time.Second,
	}, deps.Radio, store, logger)
	view.SetController(a)
	return a, nil
}

// Boot loads saved settings, probes peripherals, starts the radio and
// lands on the main menu. A saved network is rejoined in the background.
func (a *App) Boot(ctx context.Context) {
	now := a.now()
	a.setScreen(ui.ScreenBoot)
	a.Render(now)

	var err error
	if a.savedSSID, err = a.store.GetString(ctx, state.NamespaceConfig, prefSSID, ""); err != nil {
		a.logger.Error("prefs.load_failed", map[string]any{"key": prefSSID, "error": err.Error()})
	}
	if a.savedPassword, err = a.store.GetString(ctx, state.NamespaceConfig, prefPassword, ""); err != nil {
		a.logger.Error("prefs.load_failed", map[string]any{"key": prefPassword, "error": err.Error()})
	}

	caps, problems := hw.Detect(ctx, a.hw)
	for name, perr := range problems {
		a.logger.Warn("hw.unavailable", map[string]any{"device": name, "error": perr.Error()})
	}
	a.caps = caps
	a.logger.Info("hw.detected", map[string]any{
		"network": caps.Network, "audio": caps.Audio, "tuner": caps.Tuner, "battery": caps.Battery, "tracks": caps.Tracks,
	})

	if caps.Audio {
		a.player = media.NewPlayer(a.hw.Audio, a.store)
	}
	if err := a.player.Load(ctx, caps.Tracks); err != nil {
		a.logger.Warn("music.load_failed", map[string]any{"error": err.Error()})
	}
	if caps.Tuner {
		a.fm = media.NewFM(a.hw.Tuner, a.store)
	}
	if err := a.fm.Load(ctx); err != nil {
		a.logger.Warn("fm.load_failed", map[string]any{"error": err.Error()})
	}
	if err := a.quiz.Load(ctx); err != nil {
		a.logger.Warn("quiz.leaderboard_load_failed", map[string]any{"error": err.Error()})
	}
	if err := a.peers.Start(ctx); err != nil {
		a.logger.Warn("peer.start_failed", map[string]any{"error": err.Error()})
	} else {
		a.radioUp = true
		a.logger.Info("peer.started", map[string]any{"addr": a.peers.Snapshot().Local.String(), "nickname": a.peers.Nickname()})
	}
	a.checkBattery(now, true)

	a.setScreen(ui.ScreenMainMenu)
	if a.savedSSID != "" && caps.Network {
		req := joinRequest{ssid: a.savedSSID, password: a.savedPassword}
		a.startTask(taskRejoin, "Rejoining", ui.ScreenMainMenu, true, func(ctx context.Context) (any, error) {
			return req, a.connect(ctx, req)
		})
	}
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "dev": a.cfg.Dev})
	a.Boot(ctx)

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			a.applyScript(a.cfg.DemoScenario, a.now())
		} else {
			a.setDevState(a.screen.String(), "")
			_ = a.demo.SetState(ctx, a.cfg.DataDir, a.screen.String(), true)
		}
	}

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()
	a.Render(a.now())
	for {
		select {
		case <-ctx.Done():
			a.cancelTask()
			return nil
		case <-a.stopped:
			a.cancelTask()
			return nil
		case b := <-a.buttons:
			now := a.now()
			if !a.debounce.Accept(now) {
				a.logger.Debug("input.debounced", map[string]any{"button": b.String()})
				break
			}
			a.HandleInput(b, now)
		case c := <-a.done:
			a.complete(c, a.now())
		case req := <-a.scripts:
			req.reply <- a.applyScript(req.name, a.now())
		case <-ticker.C:
		}
		a.drainPeers()
		a.Tick(a.now())
	}
}

// HandleInput applies one accepted edge through the transition table.
func (a *App) HandleInput(b ui.Button, now time.Time) {
	if b < 0 || b >= ui.ButtonCount {
		return
	}
	r, ok := routes[a.screen]
	if !ok {
		return
	}
	if act := r.on[b]; act != nil {
		act(a, now)
	}
	a.dirty = true
}

// Tick runs the time-driven work: status expiry, quiz deadline, radio
// beacon, battery and render cadence.
func (a *App) Tick(now time.Time) {
	if a.status != "" && !now.Before(a.statusUntil) {
		a.status = ""
		a.dirty = true
	}
	if a.screen == ui.ScreenQuizPlaying {
		if o, ok := a.quiz.OnDeadlineElapsed(now); ok {
			a.showOutcome(o)
		}
	}
	if a.radioUp {
		a.peers.Beacon(a.baseCtx, now)
	}
	a.checkBattery(now, false)
	if a.renderDue(now) {
		a.Render(now)
	}
}

func (a *App) renderDue(now time.Time) bool {
	if a.dirty {
		return true
	}
	since := now.Sub(a.lastRender)
	if a.screen.Animated() && since >= time.Duration(a.cfg.Input.AnimatedRenderMS)*time.Millisecond {
		return true
	}
	return since >= time.Duration(a.cfg.Input.StaticRenderMS)*time.Millisecond
}

// Render builds the frame for the current screen and hands it to the view.
func (a *App) Render(now time.Time) ui.Frame {
	f := textFrame(a.screen.String())
	if r, ok := routes[a.screen]; ok && r.render != nil {
		f = r.render(a, now)
	}
	if a.status != "" {
		f.Status = a.status
	}
	a.view.SetFrame(f)
	a.dirty = false
	a.lastRender = now

	a.devMu.Lock()
	a.devState.State = a.screen.String()
	a.devState.Frame = f.Text()
	a.devState.RenderSeq++
	a.devState.Rendered = true
	a.devMu.Unlock()
	return f
}

func (a *App) OnButton(b ui.Button) {
	select {
	case a.buttons <- b:
	default:
		a.logger.Debug("input.dropped", map[string]any{"button": b.String()})
	}
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", map[string]any{"session": a.sessionID})
	a.stop()
	a.view.Stop()
}

func (a *App) stop() {
	a.stopOnce.Do(func() { close(a.stopped) })
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.stop()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
	}
	a.cancelTask()
	a.baseCancel()
	if a.radio != nil {
		_ = a.radio.Close()
	}
	if a.hw.Audio != nil {
		_ = a.hw.Audio.Close()
	}
	_ = a.store.Close()
	_ = a.logger.Close()
}

func (a *App) Screen() ui.Screen { return a.screen }

func (a *App) setScreen(s ui.Screen) {
	if s == a.screen || !s.Valid() {
		return
	}
	a.logger.Debug("screen.change", map[string]any{"from": a.screen.String(), "to": s.String()})
	a.screen = s
	a.dirty = true
}

func (a *App) flash(msg string, now time.Time) {
	a.status = msg
	a.statusUntil = now.Add(statusTTL)
	a.dirty = true
	a.view.FlashStatus(msg)
}

// drainPeers applies queued radio frames. New chat lines are announced
// unless the chat is already on screen.
func (a *App) drainPeers() {
	if a.peers.Drain() == 0 {
		return
	}
	a.dirty = true
	n := len(a.peers.Snapshot().Messages)
	if n > a.seenMsgs && a.screen != ui.ScreenPeerChat {
		a.flash("New message", a.now())
	}
	a.seenMsgs = n
}

type batteryView interface {
	SetBattery(label string)
}

func (a *App) checkBattery(now time.Time, force bool) {
	if a.hw.Battery == nil || !a.caps.Battery {
		return
	}
	if !force && now.Sub(a.lastBattery) < batteryInterval {
		return
	}
	a.lastBattery = now
	mv, err := a.hw.Battery.MilliVolts()
	if err != nil {
		a.logger.Warn("battery.read_failed", map[string]any{"error": err.Error()})
		return
	}
	a.batteryPct = hw.BatteryPercent(mv)
	if bv, ok := a.view.(batteryView); ok {
		bv.SetBattery(fmt.Sprintf("%d%%", a.batteryPct))
	}
	if hw.BatteryCritical(mv) {
		a.logger.Warn("battery.critical", map[string]any{"mv": mv})
		a.flash("Battery low", now)
	}
}
