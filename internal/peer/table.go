package peer

import (
	"time"

	"aipocket/internal/radio"
)

const (
	DefaultPeerCapacity    = 5
	DefaultMessageCapacity = 30
)

type Peer struct {
	Addr     radio.Addr
	Nickname string
	LastSeen time.Time
	Active   bool
}

// Table holds known peers in discovery order. It never evicts; once full,
// new addresses are ignored. Not safe for concurrent use.
type Table struct {
	capacity int
	peers    []Peer
}

func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultPeerCapacity
	}
	return &Table{capacity: capacity, peers: make([]Peer, 0, capacity)}
}

// DiscoverOrUpdate refreshes a known peer or appends a new one. The bool
// is false when the address is new and the table is full.
func (t *Table) DiscoverOrUpdate(addr radio.Addr, nickname string, now time.Time) (Peer, bool) {
	if nickname == "" {
		nickname = UnknownNickname
	}
	for i := range t.peers {
		if t.peers[i].Addr == addr {
			t.peers[i].Nickname = nickname
			t.peers[i].LastSeen = now
			t.peers[i].Active = true
			return t.peers[i], true
		}
	}
	if len(t.peers) >= t.capacity {
		return Peer{}, false
	}
	p := Peer{Addr: addr, Nickname: nickname, LastSeen: now, Active: true}
	t.peers = append(t.peers, p)
	return p, true
}

func (t *Table) Lookup(addr radio.Addr) (Peer, bool) {
	for _, p := range t.peers {
		if p.Addr == addr {
			return p, true
		}
	}
	return Peer{}, false
}

func (t *Table) At(i int) (Peer, bool) {
	if i < 0 || i >= len(t.peers) {
		return Peer{}, false
	}
	return t.peers[i], true
}

// MarkStale clears the active flag on peers not heard from within timeout.
func (t *Table) MarkStale(now time.Time, timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	n := 0
	for i := range t.peers {
		if t.peers[i].Active && now.Sub(t.peers[i].LastSeen) > timeout {
			t.peers[i].Active = false
			n++
		}
	}
	return n
}

func (t *Table) Peers() []Peer {
	return append([]Peer(nil), t.peers...)
}

func (t *Table) Len() int { return len(t.peers) }

func (t *Table) Cap() int { return t.capacity }

type Message struct {
	Text     string
	From     radio.Addr
	Nickname string
	FromSelf bool
	// To is the destination of an outbound message; Broadcast for all.
	To radio.Addr
	At time.Time
}

// Log keeps messages in receipt order and drops new ones once full.
type Log struct {
	capacity int
	msgs     []Message
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultMessageCapacity
	}
	return &Log{capacity: capacity, msgs: make([]Message, 0, capacity)}
}

func (l *Log) Append(m Message) bool {
	if len(l.msgs) >= l.capacity {
		return false
	}
	l.msgs = append(l.msgs, m)
	return true
}

func (l *Log) Messages() []Message {
	return append([]Message(nil), l.msgs...)
}

func (l *Log) Len() int { return len(l.msgs) }

func (l *Log) Full() bool { return len(l.msgs) >= l.capacity }

func (l *Log) Clear() { l.msgs = l.msgs[:0] }
