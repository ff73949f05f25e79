package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time

type buttonKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	OK    key.Binding
	Back  key.Binding
	Quit  key.Binding
}

func (k buttonKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.OK, k.Back, k.Quit}
}

func (k buttonKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Left, k.Right}, {k.OK, k.Back, k.Quit}}
}

func (k buttonKeyMap) button(msg tea.KeyPressMsg) (Button, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return ButtonUp, true
	case key.Matches(msg, k.Down):
		return ButtonDown, true
	case key.Matches(msg, k.Left):
		return ButtonLeft, true
	case key.Matches(msg, k.Right):
		return ButtonRight, true
	case key.Matches(msg, k.OK):
		return ButtonOK, true
	case key.Matches(msg, k.Back):
		return ButtonBack, true
	}
	return 0, false
}

// Root is the terminal stand-in for the device: a fixed-size display panel
// plus a status bar, driven by six buttons mapped from the keyboard.
type Root struct {
	theme Theme
	ascii bool
	debug bool
	ctrl  Controller

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	frame       Frame
	statusFlash string
	clock       time.Time

	help    help.Model
	keymap  buttonKeyMap
	spin    spinner.Model
	logger  *clog.Logger
	battery string

	lastInputEvent string
}

type Options struct {
	ASCIIOnly bool
	Debug     bool
	Theme     string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "aipocket-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}
	theme := ThemeForVariant(normalizeTheme(opts.Theme))
	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	r := &Root{
		theme:  theme,
		ascii:  opts.ASCIIOnly,
		debug:  opts.Debug,
		layout: LayoutFull,
		cols:   80,
		rows:   24,
		frame:  Frame{Title: "AI POCKET", Selected: -1},
		clock:  time.Now(),
		help:   h,
		spin:   spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Accent)),
		logger: logger,
	}
	r.keymap = buttonKeyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k", "w"), key.WithHelp("↑", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j", "s"), key.WithHelp("↓", "down")),
		Left:  key.NewBinding(key.WithKeys("left", "h", "a"), key.WithHelp("←", "left")),
		Right: key.NewBinding(key.WithKeys("right", "l", "d"), key.WithHelp("→", "right")),
		OK:    key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", "ok")),
		Back:  key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.spin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, nil
	case clockMsg:
		r.clock = time.Time(msg)
		return r, clockTickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Warn.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	v := tea.NewView(r.render())
	v.AltScreen = true
	return v
}

// render lays out the screen for the current terminal size.
func (r *Root) render() string {
	if r.cols < 1 {
		r.cols = 80
	}
	if r.rows < 1 {
		r.rows = 24
	}

	var body string
	switch r.layout {
	case LayoutTooSmall:
		body = r.theme.Warn.Render(trimForWidth(fmt.Sprintf("Too small %dx%d", r.cols, r.rows), r.cols))
	case LayoutCompact:
		body = strings.Join([]string{r.renderDisplay(), r.statusLine(DisplayCols + 2)}, "\n")
	default:
		device := r.theme.DeviceOutline.Render(r.renderDisplay())
		body = strings.Join([]string{
			r.headerLine(r.cols),
			device,
			r.statusLine(r.cols),
			r.help.ShortHelpView(r.keymap.ShortHelp()),
		}, "\n")
	}
	return body
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetFrame(f Frame) {
	f.Lines = append([]string(nil), f.Lines...)
	r.apply(func(m *Root) {
		m.frame = f
		if f.Status != "" {
			m.statusFlash = ""
		}
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// SetBattery sets the header battery label.
func (r *Root) SetBattery(label string) {
	r.apply(func(m *Root) {
		m.battery = label
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if b, ok := r.keymap.button(msg); ok {
		r.dispatchController(func(c Controller) { c.OnButton(b) })
	}
	return r, nil
}

func (r *Root) renderDisplay() string {
	f := r.frame
	lines := make([]string, DisplayRows)
	body := DisplayRows
	if f.Footer != "" || f.Spinner {
		body--
	}
	for i := 0; i < body && i < len(f.Lines); i++ {
		line := padRune(trimForWidth(f.Lines[i], DisplayCols), DisplayCols)
		if i == f.Selected {
			line = r.theme.Selected.Render(line)
		} else {
			line = r.theme.PanelBody.Render(line)
		}
		lines[i] = line
	}
	for i := range lines {
		if lines[i] == "" {
			lines[i] = r.theme.PanelBody.Render(strings.Repeat(" ", DisplayCols))
		}
	}
	if body < DisplayRows {
		footer := f.Footer
		if f.Spinner {
			footer = ansi.Strip(r.spin.View()) + " " + footer
		}
		lines[DisplayRows-1] = r.theme.Footer.Render(padRune(trimForWidth(footer, DisplayCols), DisplayCols))
	}
	return r.drawPanel(f.Title, lines, DisplayCols+2, DisplayRows+2)
}

func (r *Root) headerLine(width int) string {
	left := "AI POCKET"
	right := r.clock.Format("15:04")
	if r.battery != "" {
		right = r.battery + "  " + right
	}
	gap := max(1, width-2-len([]rune(left))-len([]rune(right)))
	return r.theme.Header.Width(width).Render(trimForWidth(left+strings.Repeat(" ", gap)+right, max(1, width-2)))
}

func (r *Root) statusLine(width int) string {
	msg := firstNonEmptyStr(r.frame.Status, r.statusFlash)
	if msg == "" {
		msg = " "
	}
	return r.theme.Status.Width(width).Render(trimForWidth(msg, max(1, width-2)))
}

// drawPanel draws lines inside a box. Lines may already carry styling, so
// they are used as-is rather than padded.
func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := []rune(" " + trimForWidth(title, innerW-2) + " ")
		runes := []rune(top)
		for i, ch := range t {
			pos := 1 + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := strings.Repeat(" ", innerW)
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(v)+line+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", " "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeTheme(v string) string {
	switch strings.TrimSpace(v) {
	case "oled", "amber", "paper":
		return strings.TrimSpace(v)
	default:
		return "oled"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"title", r.frame.Title,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
