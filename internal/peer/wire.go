package peer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

type Kind byte

const (
	KindHello Kind = 'H'
	KindChat  Kind = 'M'
)

const (
	textField     = 100
	nicknameField = 20
	// FrameSize is the fixed wire size: kind + text + nickname + timestamp.
	FrameSize = 1 + textField + nicknameField + 4

	MaxTextBytes     = textField - 1
	MaxNicknameBytes = nicknameField - 1

	UnknownNickname = "Unknown"
)

var ErrBadFrame = errors.New("malformed peer frame")

// Frame is one radio record. Strings are NUL-terminated on the wire.
type Frame struct {
	Kind      Kind
	Text      string
	Nickname  string
	Timestamp uint32
}

func (f Frame) MarshalBinary() ([]byte, error) {
	if f.Kind != KindHello && f.Kind != KindChat {
		return nil, fmt.Errorf("%w: kind %q", ErrBadFrame, byte(f.Kind))
	}
	buf := make([]byte, FrameSize)
	buf[0] = byte(f.Kind)
	copy(buf[1:1+textField], truncateUTF8(f.Text, MaxTextBytes))
	copy(buf[1+textField:1+textField+nicknameField], truncateUTF8(f.Nickname, MaxNicknameBytes))
	binary.LittleEndian.PutUint32(buf[1+textField+nicknameField:], f.Timestamp)
	return buf, nil
}

func (f *Frame) UnmarshalBinary(b []byte) error {
	if len(b) < FrameSize {
		return fmt.Errorf("%w: %d bytes", ErrBadFrame, len(b))
	}
	kind := Kind(b[0])
	if kind != KindHello && kind != KindChat {
		return fmt.Errorf("%w: kind %q", ErrBadFrame, b[0])
	}
	f.Kind = kind
	f.Text = cString(b[1 : 1+textField])
	f.Nickname = cString(b[1+textField : 1+textField+nicknameField])
	if f.Nickname == "" {
		f.Nickname = UnknownNickname
	}
	f.Timestamp = binary.LittleEndian.Uint32(b[1+textField+nicknameField:])
	return nil
}

func Decode(b []byte) (Frame, error) {
	var f Frame
	err := f.UnmarshalBinary(b)
	return f, err
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.ToValidUTF8(b, nil))
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
