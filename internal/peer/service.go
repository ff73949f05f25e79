package peer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"aipocket/internal/radio"
	"aipocket/internal/state"
	"aipocket/internal/telemetry"
)

const (
	DefaultNickname  = "ESP32C3"
	NicknameKey      = "espnow_nick"
	defaultQueueSize = 32
)

var (
	ErrNoPeer    = errors.New("no peer")
	ErrRadioDown = errors.New("radio not started")
	ErrEmptyText = errors.New("empty message")
)

// Target selects broadcast or a peer by table index.
type Target struct {
	directed bool
	index    int
}

var Broadcast = Target{}

func Directed(index int) Target { return Target{directed: true, index: index} }

func (t Target) IsBroadcast() bool { return !t.directed }

func (t Target) Index() int { return t.index }

type Config struct {
	Nickname        string
	PeerCapacity    int
	MessageCapacity int
	QueueSize       int
	// BeaconInterval re-announces this node; zero announces only at start.
	BeaconInterval time.Duration
	// StaleAfter clears the active flag of silent peers; zero disables.
	StaleAfter time.Duration
}

type Snapshot struct {
	Nickname string
	Local    radio.Addr
	Peers    []Peer
	Messages []Message
	Dropped  uint64
	Started  bool
}

type inbound struct {
	src     radio.Addr
	payload []byte
	at      time.Time
}

// Service owns the peer table and message log. Radio callbacks only
// enqueue; Drain applies queued frames on the controller loop.
type Service struct {
	cfg    Config
	radio  radio.Radio
	prefs  state.Prefs
	logger *telemetry.Logger
	now    func() time.Time
	boot   time.Time

	mu         sync.RWMutex
	table      *Table
	log        *Log
	nickname   string
	started    bool
	lastBeacon time.Time

	queue   chan inbound
	dropped atomic.Uint64
}

func NewService(cfg Config, r radio.Radio, prefs state.Prefs, logger *telemetry.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	nick := strings.TrimSpace(cfg.Nickname)
	if nick == "" {
		nick = DefaultNickname
	}
	return &Service{
		cfg:      cfg,
		radio:    r,
		prefs:    prefs,
		logger:   logger,
		now:      time.Now,
		boot:     time.Now(),
		table:    NewTable(cfg.PeerCapacity),
		log:      NewLog(cfg.MessageCapacity),
		nickname: truncateUTF8(nick, MaxNicknameBytes),
		queue:    make(chan inbound, cfg.QueueSize),
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.boot = now()
}

// Start loads the saved nickname, hooks the radio and announces this node.
func (s *Service) Start(ctx context.Context) error {
	if s.radio == nil {
		return ErrRadioDown
	}
	if s.prefs != nil {
		if nick, err := s.prefs.GetString(ctx, state.NamespaceConfig, NicknameKey, ""); err == nil && strings.TrimSpace(nick) != "" {
			s.mu.Lock()
			s.nickname = truncateUTF8(strings.TrimSpace(nick), MaxNicknameBytes)
			s.mu.Unlock()
		}
	}
	s.radio.OnReceive(s.enqueue)
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	return s.hello(ctx, s.now())
}

func (s *Service) enqueue(src radio.Addr, payload []byte) {
	select {
	case s.queue <- inbound{src: src, payload: payload, at: s.now()}:
	default:
		n := s.dropped.Add(1)
		s.logger.Warn("peer.inbound_dropped", map[string]any{"from": src.String(), "dropped": n})
	}
}

// Drain applies every queued inbound frame and returns how many changed state.
func (s *Service) Drain() int {
	applied := 0
	for {
		select {
		case in := <-s.queue:
			if s.apply(in) {
				applied++
			}
		default:
			return applied
		}
	}
}

func (s *Service) apply(in inbound) bool {
	f, err := Decode(in.payload)
	if err != nil {
		s.logger.Debug("peer.frame_rejected", map[string]any{"from": in.src.String(), "error": err.Error()})
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.table.DiscoverOrUpdate(in.src, f.Nickname, in.at)
	if f.Kind == KindHello {
		return known
	}
	s.log.Append(Message{Text: f.Text, From: in.src, Nickname: f.Nickname, At: in.at})
	return true
}

// DiscoverOrUpdate registers or refreshes a peer outside the radio path.
func (s *Service) DiscoverOrUpdate(addr radio.Addr, nickname string) (Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.DiscoverOrUpdate(addr, nickname, s.now())
}

func (s *Service) RecordInbound(addr radio.Addr, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	nick := UnknownNickname
	if p, ok := s.table.Lookup(addr); ok {
		nick = p.Nickname
	}
	return s.log.Append(Message{Text: text, From: addr, Nickname: nick, At: s.now()})
}

func (s *Service) Send(ctx context.Context, text string, target Target) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}
	s.mu.RLock()
	started := s.started
	nick := s.nickname
	dst := radio.Broadcast
	var peerCount int
	if target.directed {
		peerCount = s.table.Len()
		p, ok := s.table.At(target.index)
		if ok {
			dst = p.Addr
		}
	}
	s.mu.RUnlock()

	if target.directed && (peerCount == 0 || dst.IsBroadcast()) {
		return ErrNoPeer
	}
	if !started || s.radio == nil {
		return ErrRadioDown
	}
	now := s.now()
	text = truncateUTF8(text, MaxTextBytes)
	b, err := Frame{Kind: KindChat, Text: text, Nickname: nick, Timestamp: s.stamp(now)}.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.radio.Send(ctx, dst, b); err != nil {
		s.logger.Warn("peer.send_failed", map[string]any{"to": dst.String(), "error": err.Error()})
		return fmt.Errorf("send to %s: %w", dst, err)
	}

	s.mu.Lock()
	s.log.Append(Message{Text: text, From: s.radio.LocalAddr(), Nickname: nick, FromSelf: true, To: dst, At: now})
	s.mu.Unlock()
	return nil
}

// Beacon re-announces on the configured interval and ages out activity flags.
func (s *Service) Beacon(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.table.MarkStale(now, s.cfg.StaleAfter)
	due := s.started && s.cfg.BeaconInterval > 0 && now.Sub(s.lastBeacon) >= s.cfg.BeaconInterval
	s.mu.Unlock()
	if !due {
		return
	}
	if err := s.hello(ctx, now); err != nil {
		s.logger.Warn("peer.beacon_failed", map[string]any{"error": err.Error()})
	}
}

func (s *Service) hello(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	nick := s.nickname
	s.lastBeacon = now
	s.mu.Unlock()
	b, err := Frame{Kind: KindHello, Nickname: nick, Timestamp: s.stamp(now)}.MarshalBinary()
	if err != nil {
		return err
	}
	return s.radio.Send(ctx, radio.Broadcast, b)
}

func (s *Service) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// SetNickname trims, bounds and persists a new nickname, then re-announces.
func (s *Service) SetNickname(ctx context.Context, name string) error {
	name = truncateUTF8(strings.TrimSpace(name), MaxNicknameBytes)
	if name == "" {
		return ErrEmptyText
	}
	s.mu.Lock()
	s.nickname = name
	started := s.started
	s.mu.Unlock()
	if s.prefs != nil {
		if err := s.prefs.PutString(ctx, state.NamespaceConfig, NicknameKey, name); err != nil {
			return fmt.Errorf("save nickname: %w", err)
		}
	}
	if started {
		if err := s.hello(ctx, s.now()); err != nil {
			s.logger.Warn("peer.hello_failed", map[string]any{"error": err.Error()})
		}
	}
	return nil
}

func (s *Service) ClearMessages() {
	s.mu.Lock()
	s.log.Clear()
	s.mu.Unlock()
}

func (s *Service) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table.Len()
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var local radio.Addr
	if s.radio != nil {
		local = s.radio.LocalAddr()
	}
	return Snapshot{
		Nickname: s.nickname,
		Local:    local,
		Peers:    s.table.Peers(),
		Messages: s.log.Messages(),
		Dropped:  s.dropped.Load(),
		Started:  s.started,
	}
}

// stamp is milliseconds since this service booted, wrapping at 2^32.
func (s *Service) stamp(now time.Time) uint32 {
	return uint32(now.Sub(s.boot).Milliseconds())
}
