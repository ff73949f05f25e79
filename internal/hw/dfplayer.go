package hw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// DFPlayer command bytes.
const (
	dfPlayTrack  = 0x03
	dfVolume     = 0x06
	dfEQ         = 0x07
	dfReset      = 0x0C
	dfResume     = 0x0D
	dfPause      = 0x0E
	dfQueryFiles = 0x48

	dfFrameLen = 10
)

var ErrBadReply = errors.New("dfplayer: malformed reply")

// DFPlayer drives a serial MP3 module with 10-byte command frames:
// 7E FF 06 CMD FB PH PL CSH CSL EF.
type DFPlayer struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
}

func OpenDFPlayer(port string, baud int) (*DFPlayer, error) {
	if baud <= 0 {
		baud = 9600
	}
	p, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud, ReadTimeout: 500 * time.Millisecond})
	if err != nil {
		return nil, fmt.Errorf("open dfplayer on %s: %w", port, err)
	}
	return NewDFPlayer(p), nil
}

func NewDFPlayer(port io.ReadWriteCloser) *DFPlayer {
	return &DFPlayer{port: port}
}

func EncodeDFFrame(cmd byte, param uint16, feedback bool) []byte {
	fb := byte(0)
	if feedback {
		fb = 1
	}
	f := []byte{0x7E, 0xFF, 0x06, cmd, fb, byte(param >> 8), byte(param), 0, 0, 0xEF}
	var sum uint16
	for _, b := range f[1:7] {
		sum += uint16(b)
	}
	cs := -sum
	f[7] = byte(cs >> 8)
	f[8] = byte(cs)
	return f
}

// DecodeDFFrame validates a reply frame and returns its command and parameter.
func DecodeDFFrame(f []byte) (byte, uint16, error) {
	if len(f) != dfFrameLen || f[0] != 0x7E || f[9] != 0xEF {
		return 0, 0, ErrBadReply
	}
	var sum uint16
	for _, b := range f[1:7] {
		sum += uint16(b)
	}
	if got := uint16(f[7])<<8 | uint16(f[8]); got != -sum {
		return 0, 0, fmt.Errorf("%w: checksum", ErrBadReply)
	}
	return f[3], uint16(f[5])<<8 | uint16(f[6]), nil
}

func (d *DFPlayer) send(cmd byte, param uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.port.Write(EncodeDFFrame(cmd, param, false))
	return err
}

func (d *DFPlayer) TrackCount(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write(EncodeDFFrame(dfQueryFiles, 0, false)); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(time.Second)
	buf := make([]byte, 0, dfFrameLen)
	tmp := make([]byte, dfFrameLen)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := d.port.Read(tmp)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		buf = append(buf, tmp[:n]...)
		for len(buf) >= dfFrameLen {
			if buf[0] != 0x7E {
				buf = buf[1:]
				continue
			}
			cmd, param, err := DecodeDFFrame(buf[:dfFrameLen])
			buf = buf[dfFrameLen:]
			if err == nil && cmd == dfQueryFiles {
				return int(param), nil
			}
		}
	}
	return 0, errors.New("dfplayer: no reply to track count query")
}

func (d *DFPlayer) Play(track int) error {
	if track < 1 || track > 3000 {
		return fmt.Errorf("dfplayer: track %d out of range", track)
	}
	return d.send(dfPlayTrack, uint16(track))
}

func (d *DFPlayer) Pause() error { return d.send(dfPause, 0) }

func (d *DFPlayer) Resume() error { return d.send(dfResume, 0) }

func (d *DFPlayer) SetVolume(v int) error {
	return d.send(dfVolume, uint16(min(max(v, 0), 30)))
}

func (d *DFPlayer) SetEQ(eq int) error {
	return d.send(dfEQ, uint16(min(max(eq, 0), 5)))
}

func (d *DFPlayer) Reset() error { return d.send(dfReset, 0) }

func (d *DFPlayer) Close() error { return d.port.Close() }

var _ AudioPlayer = (*DFPlayer)(nil)
