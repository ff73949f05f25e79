package app

import (
	"strings"
	"testing"

	"aipocket/internal/aichat"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Radio.Transport != "loopback" || cfg.Audio.Driver != "sim" || cfg.WiFi.Driver != "sim" {
		t.Fatalf("unexpected default drivers: %#v", cfg)
	}
}

func TestValidateFillsZeroValues(t *testing.T) {
	cfg := Config{DataDir: t.TempDir()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected zero config to validate, got %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Theme != "oled" {
		t.Fatalf("expected log/theme defaults, got %q %q", cfg.LogLevel, cfg.Theme)
	}
	if cfg.Input.StaticRenderMS != 500 || cfg.Input.AnimatedRenderMS != 150 {
		t.Fatalf("expected render cadence defaults, got %#v", cfg.Input)
	}
	if cfg.WiFi.JoinAttempts != 20 || cfg.Audio.Baud != 9600 || cfg.Radio.Topic != "aipocket" {
		t.Fatalf("unexpected filled values: %#v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		edit func(c *Config)
		want string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"theme", func(c *Config) { c.Theme = "neon" }, "theme"},
		{"debounce", func(c *Config) { c.Input.DebounceMS = -1 }, "debounce"},
		{"persona", func(c *Config) { c.AI.Persona = "pirate" }, "persona"},
		{"wifi driver", func(c *Config) { c.WiFi.Driver = "esp" }, "wifi driver"},
		{"radio transport", func(c *Config) { c.Radio.Transport = "lora" }, "radio transport"},
		{"mqtt broker", func(c *Config) { c.Radio.Transport = "mqtt" }, "broker"},
		{"audio driver", func(c *Config) { c.Audio.Driver = "i2s" }, "audio driver"},
		{"dfplayer port", func(c *Config) { c.Audio.Driver = "dfplayer" }, "serial port"},
		{"tuner", func(c *Config) { c.Audio.Tuner = "si4703" }, "tuner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tc.edit(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateNormalizesLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.LogLevel = " DEBUG "
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", cfg.LogLevel)
	}
}

func TestParsePersona(t *testing.T) {
	cases := map[string]aichat.Mode{
		"":          aichat.ModeCompanion,
		"Companion": aichat.ModeCompanion,
		"buddy":     aichat.ModeCompanion,
		"standard":  aichat.ModeStandard,
		" plain ":   aichat.ModeStandard,
	}
	for raw, want := range cases {
		got, ok := parsePersona(raw)
		if !ok || got != want {
			t.Fatalf("parsePersona(%q): expected %v, got %v ok=%v", raw, want, got, ok)
		}
	}
	if _, ok := parsePersona("pirate"); ok {
		t.Fatalf("expected unknown persona rejected")
	}
}
