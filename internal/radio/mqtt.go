package radio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTConfig holds broker settings. Topics are derived from Prefix:
// <prefix>/broadcast and <prefix>/node/<addr-hex>.
type MQTTConfig struct {
	Broker   string
	Username string
	Password string
	Prefix   string
	Timeout  time.Duration
}

// MQTT carries radio frames over a broker so devices on different hosts
// can see each other. Each payload is prefixed with the sender address.
type MQTT struct {
	client  mqtt.Client
	addr    Addr
	prefix  string
	timeout time.Duration

	mu   sync.RWMutex
	recv Receiver
}

func DialMQTT(cfg MQTTConfig, addr Addr) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt radio: broker is required")
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = "aipocket"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	m := &MQTT{addr: addr, prefix: prefix, timeout: timeout}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("aipocket-" + addr.Hex() + "-" + uuid.NewString()[:8])
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		// Resubscribe on every (re)connect; the session is not persistent.
		for _, topic := range []string{m.broadcastTopic(), m.nodeTopic(m.addr)} {
			c.Subscribe(topic, 0, m.handle)
		}
	})

	m.client = mqtt.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt radio: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt radio: connect to %s: %w", cfg.Broker, err)
	}
	return m, nil
}

func (m *MQTT) LocalAddr() Addr { return m.addr }

func (m *MQTT) Send(ctx context.Context, dst Addr, payload []byte) error {
	if len(payload) > MaxPayload {
		return ErrTooLarge
	}
	if !m.client.IsConnected() {
		return ErrClosed
	}
	topic := m.broadcastTopic()
	if !dst.IsBroadcast() {
		topic = m.nodeTopic(dst)
	}
	frame := make([]byte, 0, len(m.addr)+len(payload))
	frame = append(frame, m.addr[:]...)
	frame = append(frame, payload...)

	token := m.client.Publish(topic, 0, false, frame)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("mqtt radio: publish to %s timed out", topic)
	}
}

func (m *MQTT) OnReceive(fn Receiver) {
	m.mu.Lock()
	m.recv = fn
	m.mu.Unlock()
}

func (m *MQTT) handle(_ mqtt.Client, msg mqtt.Message) {
	src, payload, ok := splitFrame(msg.Payload())
	if !ok || src == m.addr {
		return
	}
	m.mu.RLock()
	fn := m.recv
	m.mu.RUnlock()
	if fn != nil {
		fn(src, payload)
	}
}

func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}

func (m *MQTT) broadcastTopic() string { return m.prefix + "/broadcast" }

func (m *MQTT) nodeTopic(a Addr) string { return m.prefix + "/node/" + a.Hex() }

func splitFrame(b []byte) (Addr, []byte, bool) {
	var src Addr
	if len(b) < len(src) {
		return src, nil, false
	}
	copy(src[:], b[:len(src)])
	return src, append([]byte(nil), b[len(src):]...), true
}

var _ Radio = (*MQTT)(nil)
