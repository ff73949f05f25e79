package radio

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Addr is a 6-byte link-layer address.
type Addr [6]byte

// Broadcast is the all-ones address.
var Broadcast = Addr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

var (
	ErrClosed      = errors.New("radio closed")
	ErrUnreachable = errors.New("destination unreachable")
	ErrTooLarge    = errors.New("payload too large")
)

// MaxPayload mirrors the 250-byte frame limit of the short-range radio.
const MaxPayload = 250

// Receiver is invoked off the caller's loop for every inbound frame.
type Receiver func(src Addr, payload []byte)

type Radio interface {
	LocalAddr() Addr
	Send(ctx context.Context, dst Addr, payload []byte) error
	OnReceive(fn Receiver)
	Close() error
}

func (a Addr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// Hex is the compact lowercase form used in topic names.
func (a Addr) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Addr) IsBroadcast() bool {
	return a == Broadcast
}

func (a Addr) IsZero() bool {
	return a == Addr{}
}

// ParseAddr accepts "AA:BB:CC:DD:EE:FF", "aa-bb-..." or 12 hex digits.
func ParseAddr(raw string) (Addr, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(":", "", "-", "").Replace(s)
	if len(s) != 12 {
		return Addr{}, fmt.Errorf("parse addr %q: want 6 bytes", raw)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Addr{}, fmt.Errorf("parse addr %q: %w", raw, err)
	}
	var a Addr
	copy(a[:], b)
	return a, nil
}
