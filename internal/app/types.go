package app

import (
	"context"
	"time"

	"aipocket/internal/hw"
	"aipocket/internal/quiz"
	"aipocket/internal/radio"
	"aipocket/internal/telemetry"
	"aipocket/internal/ui"
)

// Deps are the collaborators the controller drives. Nil Store and Logger
// are opened from Config; nil AI and Trivia use the HTTP clients.
type Deps struct {
	View     ui.View
	Store    Store
	Logger   *telemetry.Logger
	Radio    radio.Radio
	Hardware hw.Peripherals
	AI       Chat
	Trivia   Trivia
	Catalog  *quiz.Catalog
	Demo     Demo
	Now      func() time.Time
}

type taskKind int

const (
	taskScan taskKind = iota
	taskJoin
	taskRejoin
	taskChat
	taskTrivia
	taskSeek
)

func (k taskKind) String() string {
	switch k {
	case taskScan:
		return "scan"
	case taskJoin:
		return "join"
	case taskRejoin:
		return "rejoin"
	case taskChat:
		return "chat"
	case taskTrivia:
		return "trivia"
	case taskSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// task is blocking work running off the loop. Only the newest task's
// completion is applied.
type task struct {
	id      uint64
	kind    taskKind
	label   string
	back    ui.Screen
	quiet   bool
	started time.Time
	cancel  context.CancelFunc
}

type completion struct {
	id    uint64
	kind  taskKind
	value any
	err   error
}

// textTarget says where keyboard input goes. commit runs after the screen
// has been set to cancel, so it may move somewhere else.
type textTarget struct {
	title   string
	masked  bool
	initial string
	maxLen  int
	cancel  ui.Screen
	commit  func(a *App, text string, now time.Time)
}

type scriptRequest struct {
	name  string
	reply chan string
}

type joinRequest struct {
	ssid     string
	password string
}
