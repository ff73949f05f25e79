package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"aipocket/internal/app"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AIPOCKET_"

type flagValues struct {
	configPath string
	dataDir    string
	logPath    string
	debug      bool
	dev        bool
	demo       string
	headless   bool
	ascii      bool
	theme      string
	transport  string
	broker     string
	audio      string
	port       string
}

func (f *flagValues) register(set *pflag.FlagSet) {
	set.StringVarP(&f.configPath, "config", "c", "aipocket.yaml", "YAML config file")
	set.StringVar(&f.dataDir, "data-dir", "", "directory for state.db and dev state")
	set.StringVar(&f.logPath, "log", "", "log file (default <data-dir>/aipocket.log)")
	set.BoolVar(&f.debug, "debug", false, "debug logging")
	set.BoolVar(&f.dev, "dev", false, "enable the dev HTTP control server")
	set.StringVar(&f.demo, "demo", "", "demo scenario to apply at start (implies --dev)")
	set.BoolVar(&f.headless, "headless", false, "run without the terminal display")
	set.BoolVar(&f.ascii, "ascii", false, "ASCII-only borders")
	set.StringVar(&f.theme, "theme", "", "display theme: oled, amber, paper")
	set.StringVar(&f.transport, "radio", "", "peer radio transport: loopback, mqtt, none")
	set.StringVar(&f.broker, "broker", "", "MQTT broker URL for the mqtt transport")
	set.StringVar(&f.audio, "audio", "", "audio driver: sim, dfplayer, none")
	set.StringVar(&f.port, "serial", "", "serial port for the dfplayer driver")
}

// loadConfig layers defaults, the YAML file, .env, the environment and
// finally any flags that were set explicitly.
func loadConfig(flags *pflag.FlagSet, f flagValues) (app.Config, error) {
	cfg := app.DefaultConfig()

	if f.configPath != "" {
		b, err := os.ReadFile(f.configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !flags.Changed("config"):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", f.configPath, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}

	if flags.Changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if flags.Changed("log") {
		cfg.LogPath = f.logPath
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
	if f.dev {
		cfg.Dev = true
	}
	if f.demo != "" {
		cfg.Dev = true
		cfg.DemoScenario = f.demo
	}
	if f.headless {
		cfg.Headless = true
	}
	if f.ascii {
		cfg.ASCIIOnly = true
	}
	if flags.Changed("theme") {
		cfg.Theme = f.theme
	}
	if flags.Changed("radio") {
		cfg.Radio.Transport = f.transport
	}
	if flags.Changed("broker") {
		cfg.Radio.Broker = f.broker
	}
	if flags.Changed("audio") {
		cfg.Audio.Driver = f.audio
	}
	if flags.Changed("serial") {
		cfg.Audio.Port = f.port
	}
	return cfg, nil
}
