package hw

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestBatteryPercent(t *testing.T) {
	cases := map[int]int{2900: 0, 3000: 0, 3600: 50, 4200: 100, 4300: 100}
	for mv, want := range cases {
		if got := BatteryPercent(mv); got != want {
			t.Fatalf("%d mV: expected %d%%, got %d%%", mv, want, got)
		}
	}
	if !BatteryCritical(3299) || BatteryCritical(3300) || BatteryCritical(0) {
		t.Fatalf("unexpected critical thresholds")
	}
}

func TestRankNetworks(t *testing.T) {
	aps := []AccessPoint{
		{SSID: "b", RSSI: -70},
		{SSID: "a", RSSI: -40},
		{SSID: "b", RSSI: -50},
		{SSID: "", RSSI: -10},
		{SSID: "c", RSSI: -90},
	}
	got := RankNetworks(aps, 2)
	if len(got) != 2 || got[0].SSID != "a" || got[1].SSID != "b" || got[1].RSSI != -50 {
		t.Fatalf("unexpected ranking %+v", got)
	}
}

func TestConnectPollsUntilAssociated(t *testing.T) {
	n := NewSimNetwork()
	n.ConnectPolls = 3
	if err := Connect(context.Background(), n, "HomeNet", "password123", 5, time.Millisecond); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if n.SSID() != "HomeNet" {
		t.Fatalf("expected HomeNet, got %q", n.SSID())
	}
	err := Connect(context.Background(), n, "HomeNet", "nope", 3, time.Millisecond)
	if !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("expected ErrJoinTimeout, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Connect(ctx, n, "Office-5G", "wrong", 20, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDFFrameChecksumRoundTrip(t *testing.T) {
	f := EncodeDFFrame(dfVolume, 15, false)
	want := []byte{0x7E, 0xFF, 0x06, 0x06, 0x00, 0x00, 0x0F, 0xFE, 0xE6, 0xEF}
	if !bytes.Equal(f, want) {
		t.Fatalf("expected % X, got % X", want, f)
	}
	cmd, param, err := DecodeDFFrame(f)
	if err != nil || cmd != dfVolume || param != 15 {
		t.Fatalf("decode: %v %x %d", err, cmd, param)
	}
	f[6] = 0x10
	if _, _, err := DecodeDFFrame(f); !errors.Is(err, ErrBadReply) {
		t.Fatalf("expected checksum failure, got %v", err)
	}
}

type fakePort struct {
	written bytes.Buffer
	reply   *bytes.Reader
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.reply == nil {
		return 0, io.EOF
	}
	return p.reply.Read(b)
}
func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }
func (p *fakePort) Close() error                { return nil }

func TestDFPlayerCommandsAndQuery(t *testing.T) {
	reply := append([]byte{0x00}, EncodeDFFrame(dfQueryFiles, 42, false)...)
	port := &fakePort{reply: bytes.NewReader(reply)}
	d := NewDFPlayer(port)
	n, err := d.TrackCount(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("expected 42 tracks, got %d %v", n, err)
	}
	port.written.Reset()
	if err := d.Play(7); err != nil {
		t.Fatalf("play: %v", err)
	}
	if !bytes.Equal(port.written.Bytes(), EncodeDFFrame(dfPlayTrack, 7, false)) {
		t.Fatalf("unexpected play frame % X", port.written.Bytes())
	}
	if err := d.Play(0); err == nil {
		t.Fatalf("expected track range error")
	}
}

func TestDetectMarksMissingPeripherals(t *testing.T) {
	caps, problems := Detect(context.Background(), Peripherals{
		Network: NewSimNetwork(),
		Audio:   NewSimAudio(0),
		Tuner:   NewSimTuner(),
	})
	if !caps.Network || caps.Audio || !caps.Tuner || caps.Battery {
		t.Fatalf("unexpected capabilities %+v", caps)
	}
	if problems["audio"] == nil {
		t.Fatalf("expected audio problem to be reported")
	}
}

func TestSimTunerSeekWraps(t *testing.T) {
	tu := NewSimTuner()
	_ = tu.Tune(1050)
	f, err := tu.Seek(context.Background(), true)
	if err != nil || f != 889 {
		t.Fatalf("expected wrap to 88.9, got %d %v", f, err)
	}
	f, _ = tu.Seek(context.Background(), false)
	if f != 1045 {
		t.Fatalf("expected seek down wrap to 104.5, got %d", f)
	}
	if FormatFM(1017) != "101.7 MHz" {
		t.Fatalf("unexpected format %q", FormatFM(1017))
	}
}
