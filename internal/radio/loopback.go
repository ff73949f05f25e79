package radio

import (
	"context"
	"sync"
)

// Hub connects in-process nodes. It stands in for the air when running
// the simulator or tests.
type Hub struct {
	mu    sync.RWMutex
	nodes map[Addr]*Loopback
	// Sync delivers on the sender's goroutine instead of a new one.
	Sync bool
}

func NewHub() *Hub {
	return &Hub{nodes: map[Addr]*Loopback{}}
}

func (h *Hub) Join(addr Addr) *Loopback {
	n := &Loopback{hub: h, addr: addr}
	h.mu.Lock()
	h.nodes[addr] = n
	h.mu.Unlock()
	return n
}

func (h *Hub) leave(addr Addr) {
	h.mu.Lock()
	delete(h.nodes, addr)
	h.mu.Unlock()
}

func (h *Hub) deliver(src, dst Addr, payload []byte) error {
	h.mu.RLock()
	var targets []*Loopback
	if dst.IsBroadcast() {
		for addr, n := range h.nodes {
			if addr != src {
				targets = append(targets, n)
			}
		}
	} else if n, ok := h.nodes[dst]; ok {
		targets = append(targets, n)
	}
	h.mu.RUnlock()
	if len(targets) == 0 && !dst.IsBroadcast() {
		return ErrUnreachable
	}
	for _, n := range targets {
		buf := append([]byte(nil), payload...)
		if h.Sync {
			n.receive(src, buf)
			continue
		}
		go n.receive(src, buf)
	}
	return nil
}

type Loopback struct {
	hub  *Hub
	addr Addr

	mu     sync.RWMutex
	recv   Receiver
	closed bool
}

func (l *Loopback) LocalAddr() Addr { return l.addr }

func (l *Loopback) Send(ctx context.Context, dst Addr, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(payload) > MaxPayload {
		return ErrTooLarge
	}
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return l.hub.deliver(l.addr, dst, payload)
}

func (l *Loopback) OnReceive(fn Receiver) {
	l.mu.Lock()
	l.recv = fn
	l.mu.Unlock()
}

func (l *Loopback) receive(src Addr, payload []byte) {
	l.mu.RLock()
	fn := l.recv
	closed := l.closed
	l.mu.RUnlock()
	if fn == nil || closed {
		return
	}
	fn(src, payload)
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	l.hub.leave(l.addr)
	return nil
}

var _ Radio = (*Loopback)(nil)
