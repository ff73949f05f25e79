package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, flagValues) {
	t.Helper()
	set := pflag.NewFlagSet("aipocket", pflag.ContinueOnError)
	var f flagValues
	f.register(set)
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return set, f
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aipocket.yaml")
	yml := "theme: amber\nradio:\n  beacon_sec: 5\naudio:\n  sim_tracks: 3\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AIPOCKET_THEME", "paper")
	t.Setenv("AIPOCKET_RADIO_BROKER", "tcp://broker:1883")
	t.Setenv("GEMINI_API_KEY", "from-env")

	set, f := parseFlags(t, "--config", path, "--audio", "none", "--demo", "quiz_menu")
	cfg, err := loadConfig(set, f)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Theme != "paper" {
		t.Fatalf("expected env to override yaml theme, got %q", cfg.Theme)
	}
	if cfg.Radio.BeaconSec != 5 || cfg.Audio.SimTracks != 3 {
		t.Fatalf("expected yaml values, got beacon=%d tracks=%d", cfg.Radio.BeaconSec, cfg.Audio.SimTracks)
	}
	if cfg.Radio.Broker != "tcp://broker:1883" {
		t.Fatalf("expected nested env value, got %q", cfg.Radio.Broker)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Fatalf("expected api key from GEMINI_API_KEY, got %q", cfg.AI.APIKey)
	}
	if cfg.Audio.Driver != "none" {
		t.Fatalf("expected flag to win, got %q", cfg.Audio.Driver)
	}
	if !cfg.Dev || cfg.DemoScenario != "quiz_menu" {
		t.Fatalf("expected demo to enable dev mode, got dev=%v demo=%q", cfg.Dev, cfg.DemoScenario)
	}
	if cfg.Input.DebounceMS != 200 {
		t.Fatalf("expected untouched default, got %d", cfg.Input.DebounceMS)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	set, f := parseFlags(t, "--config", missing)
	if _, err := loadConfig(set, f); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}

	set, f = parseFlags(t)
	f.configPath = missing
	if _, err := loadConfig(set, f); err != nil {
		t.Fatalf("expected implicit missing config to be ignored, got %v", err)
	}
}

func TestLocalAddr(t *testing.T) {
	a, err := localAddr("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("expected parsed addr, got %s", a)
	}
	b, err := localAddr("")
	if err != nil {
		t.Fatal(err)
	}
	if b[0] != 0x02 || b.IsBroadcast() {
		t.Fatalf("expected locally administered addr, got %s", b)
	}
}
