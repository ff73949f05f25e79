package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config controls runtime behavior for the device controller.
type Config struct {
	Dev          bool   `yaml:"dev" env:"DEV"`
	DevHTTP      string `yaml:"dev_http" env:"DEV_HTTP"`
	DemoScenario string `yaml:"demo" env:"DEMO"`
	LogPath      string `yaml:"log_path" env:"LOG_PATH"`
	LogLevel     string `yaml:"log_level" env:"LOG_LEVEL"`
	DataDir      string `yaml:"data_dir" env:"DATA_DIR"`
	Headless     bool   `yaml:"headless" env:"HEADLESS"`
	ASCIIOnly    bool   `yaml:"ascii" env:"ASCII"`
	Theme        string `yaml:"theme" env:"THEME"`

	Input  InputConfig  `yaml:"input" envPrefix:"INPUT_"`
	AI     AIConfig     `yaml:"ai" envPrefix:"AI_"`
	Trivia TriviaConfig `yaml:"trivia" envPrefix:"TRIVIA_"`
	WiFi   WiFiConfig   `yaml:"wifi" envPrefix:"WIFI_"`
	Radio  RadioConfig  `yaml:"radio" envPrefix:"RADIO_"`
	Audio  AudioConfig  `yaml:"audio" envPrefix:"AUDIO_"`
}

type InputConfig struct {
	DebounceMS       int `yaml:"debounce_ms" env:"DEBOUNCE_MS"`
	StaticRenderMS   int `yaml:"static_render_ms" env:"STATIC_RENDER_MS"`
	AnimatedRenderMS int `yaml:"animated_render_ms" env:"ANIMATED_RENDER_MS"`
}

type AIConfig struct {
	Endpoint   string `yaml:"endpoint" env:"ENDPOINT"`
	APIKey     string `yaml:"api_key" env:"API_KEY"`
	TimeoutSec int    `yaml:"timeout_sec" env:"TIMEOUT_SEC"`
	Persona    string `yaml:"persona" env:"PERSONA"`
}

type TriviaConfig struct {
	BaseURL     string `yaml:"base_url" env:"BASE_URL"`
	TimeoutSec  int    `yaml:"timeout_sec" env:"TIMEOUT_SEC"`
	CatalogPath string `yaml:"catalog" env:"CATALOG"`
}

type WiFiConfig struct {
	Driver        string `yaml:"driver" env:"DRIVER"`
	JoinAttempts  int    `yaml:"join_attempts" env:"JOIN_ATTEMPTS"`
	JoinBackoffMS int    `yaml:"join_backoff_ms" env:"JOIN_BACKOFF_MS"`
}

type RadioConfig struct {
	Transport string `yaml:"transport" env:"TRANSPORT"`
	Address   string `yaml:"address" env:"ADDRESS"`
	Broker    string `yaml:"broker" env:"BROKER"`
	Username  string `yaml:"username" env:"USERNAME"`
	Password  string `yaml:"password" env:"PASSWORD"`
	Topic     string `yaml:"topic" env:"TOPIC"`
	BeaconSec int    `yaml:"beacon_sec" env:"BEACON_SEC"`
	StaleSec  int    `yaml:"stale_sec" env:"STALE_SEC"`
}

type AudioConfig struct {
	Driver    string `yaml:"driver" env:"DRIVER"`
	Port      string `yaml:"port" env:"PORT"`
	Baud      int    `yaml:"baud" env:"BAUD"`
	SimTracks int    `yaml:"sim_tracks" env:"SIM_TRACKS"`
	Tuner     string `yaml:"tuner" env:"TUNER"`
}

func DefaultConfig() Config {
	return Config{
		DevHTTP:  "127.0.0.1:17321",
		LogLevel: "info",
		Theme:    "oled",
		Input: InputConfig{
			DebounceMS:       200,
			StaticRenderMS:   500,
			AnimatedRenderMS: 150,
		},
		AI: AIConfig{
			TimeoutSec: 30,
			Persona:    "companion",
		},
		Trivia: TriviaConfig{
			TimeoutSec: 10,
		},
		WiFi: WiFiConfig{
			Driver:        "sim",
			JoinAttempts:  20,
			JoinBackoffMS: 500,
		},
		Radio: RadioConfig{
			Transport: "loopback",
			Topic:     "aipocket",
			BeaconSec: 30,
			StaleSec:  120,
		},
		Audio: AudioConfig{
			Driver:    "sim",
			Baud:      9600,
			SimTracks: 12,
			Tuner:     "sim",
		},
	}
}

func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	switch c.Theme {
	case "", "oled", "amber", "paper":
	default:
		return fmt.Errorf("invalid theme %q", c.Theme)
	}
	if c.Theme == "" {
		c.Theme = "oled"
	}

	if c.Input.DebounceMS < 0 {
		return fmt.Errorf("invalid debounce %dms", c.Input.DebounceMS)
	}
	if c.Input.StaticRenderMS <= 0 {
		c.Input.StaticRenderMS = 500
	}
	if c.Input.AnimatedRenderMS <= 0 {
		c.Input.AnimatedRenderMS = 150
	}

	if _, ok := parsePersona(c.AI.Persona); !ok {
		return fmt.Errorf("invalid ai persona %q", c.AI.Persona)
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 30
	}
	if c.Trivia.TimeoutSec <= 0 {
		c.Trivia.TimeoutSec = 10
	}

	switch c.WiFi.Driver {
	case "", "sim", "none":
	default:
		return fmt.Errorf("invalid wifi driver %q", c.WiFi.Driver)
	}
	if c.WiFi.Driver == "" {
		c.WiFi.Driver = "sim"
	}
	if c.WiFi.JoinAttempts <= 0 {
		c.WiFi.JoinAttempts = 20
	}
	if c.WiFi.JoinBackoffMS <= 0 {
		c.WiFi.JoinBackoffMS = 500
	}

	switch c.Radio.Transport {
	case "", "loopback", "mqtt", "none":
	default:
		return fmt.Errorf("invalid radio transport %q", c.Radio.Transport)
	}
	if c.Radio.Transport == "" {
		c.Radio.Transport = "loopback"
	}
	if c.Radio.Transport == "mqtt" && strings.TrimSpace(c.Radio.Broker) == "" {
		return errors.New("radio transport mqtt requires a broker")
	}
	if c.Radio.Topic == "" {
		c.Radio.Topic = "aipocket"
	}

	switch c.Audio.Driver {
	case "", "sim", "dfplayer", "none":
	default:
		return fmt.Errorf("invalid audio driver %q", c.Audio.Driver)
	}
	if c.Audio.Driver == "" {
		c.Audio.Driver = "sim"
	}
	if c.Audio.Driver == "dfplayer" && c.Audio.Port == "" {
		return errors.New("audio driver dfplayer requires a serial port")
	}
	if c.Audio.Baud <= 0 {
		c.Audio.Baud = 9600
	}
	switch c.Audio.Tuner {
	case "", "sim", "none":
	default:
		return fmt.Errorf("invalid tuner %q", c.Audio.Tuner)
	}
	if c.Audio.Tuner == "" {
		c.Audio.Tuner = "sim"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "aipocket")
	}

	return nil
}
