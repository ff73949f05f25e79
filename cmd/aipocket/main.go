package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aipocket/internal/app"
	"aipocket/internal/hw"
	"aipocket/internal/radio"
	"aipocket/internal/state"
	"aipocket/internal/telemetry"
	"aipocket/internal/ui"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags flagValues
	root := &cobra.Command{
		Use:          "aipocket",
		Short:        "Handheld AI companion running in a terminal",
		SilenceUsage: true,
	}
	flags.register(root.PersistentFlags())

	config := func(cmd *cobra.Command) (app.Config, error) {
		cfg, err := loadConfig(cmd.Flags(), flags)
		if err != nil {
			return cfg, err
		}
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
		if cfg.LogPath == "" {
			cfg.LogPath = filepath.Join(cfg.DataDir, "aipocket.log")
		}
		return cfg, nil
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the device (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	root.RunE = runCmd.RunE

	boardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print saved trivia scores and recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			return printLeaderboard(cmd, cfg)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset [namespace...]",
		Short: "Clear saved settings (all namespaces when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			return reset(cmd, cfg, args)
		},
	}

	root.AddCommand(runCmd, boardCmd, resetCmd)
	return root
}

func run(parent context.Context, cfg app.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := telemetry.New(telemetry.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	r, err := openRadio(cfg)
	if err != nil {
		logger.Error("radio.open_failed", map[string]any{"transport": cfg.Radio.Transport, "error": err.Error()})
		fmt.Fprintf(os.Stderr, "radio unavailable: %v\n", err)
	}
	peripherals, err := openHardware(cfg)
	if err != nil {
		logger.Error("hw.open_failed", map[string]any{"error": err.Error()})
		fmt.Fprintf(os.Stderr, "audio unavailable: %v\n", err)
	}

	var view ui.View
	if cfg.Headless {
		view = ui.NewRecorder(0)
	} else {
		view = ui.New(ui.Options{ASCIIOnly: cfg.ASCIIOnly, Debug: cfg.LogLevel == "debug", Theme: cfg.Theme})
	}

	a, err := app.New(cfg, app.Deps{View: view, Logger: logger, Radio: r, Hardware: peripherals})
	if err != nil {
		if r != nil {
			_ = r.Close()
		}
		_ = logger.Close()
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := view.Run()
		a.OnQuit()
		if err != nil {
			return fmt.Errorf("display: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer view.Stop()
		return a.Run(gctx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openRadio(cfg app.Config) (radio.Radio, error) {
	if cfg.Radio.Transport == "none" {
		return nil, nil
	}
	addr, err := localAddr(cfg.Radio.Address)
	if err != nil {
		return nil, err
	}
	if cfg.Radio.Transport != "mqtt" {
		return radio.NewHub().Join(addr), nil
	}
	m, err := radio.DialMQTT(radio.MQTTConfig{
		Broker:   cfg.Radio.Broker,
		Username: cfg.Radio.Username,
		Password: cfg.Radio.Password,
		Prefix:   cfg.Radio.Topic,
		Timeout:  5 * time.Second,
	}, addr)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// localAddr parses the configured address or derives a locally administered
// one from a random uuid.
func localAddr(raw string) (radio.Addr, error) {
	if raw != "" {
		return radio.ParseAddr(raw)
	}
	u := uuid.New()
	return radio.Addr{0x02, u[11], u[12], u[13], u[14], u[15]}, nil
}

func openHardware(cfg app.Config) (hw.Peripherals, error) {
	p := hw.Peripherals{
		Battery: hw.NewSimBattery(4150, 6*time.Hour),
		System:  hw.NewHostSystem(),
	}
	if cfg.WiFi.Driver == "sim" {
		p.Network = hw.NewSimNetwork()
	}
	if cfg.Audio.Tuner == "sim" {
		p.Tuner = hw.NewSimTuner()
	}
	switch cfg.Audio.Driver {
	case "sim":
		p.Audio = hw.NewSimAudio(cfg.Audio.SimTracks)
	case "dfplayer":
		d, err := hw.OpenDFPlayer(cfg.Audio.Port, cfg.Audio.Baud)
		if err != nil {
			return p, err
		}
		p.Audio = d
	}
	return p, nil
}

func openStore(cfg app.Config) (*state.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	s, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func printLeaderboard(cmd *cobra.Command, cfg app.Config) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()
	entries, err := s.LoadLeaderboard(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No scores yet")
	}
	for i, e := range entries {
		fmt.Fprintf(out, "%d. %-19s %6s  %d/%d correct\n", i+1, e.Name, humanize.Comma(int64(e.Score)), e.Correct, e.Questions)
	}
	recent, err := s.RecentSessions(ctx, 5)
	if err != nil {
		return err
	}
	if len(recent) > 0 {
		fmt.Fprintln(out, "\nRecent sessions")
	}
	for _, r := range recent {
		fmt.Fprintf(out, "  %-8s %-8s %5d  %d/%d  %s\n", r.Mode, r.Difficulty, r.Score, r.Correct, r.Answered, humanize.Time(r.FinishedTS))
	}
	return nil
}

func reset(cmd *cobra.Command, cfg app.Config, namespaces []string) error {
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if len(namespaces) == 0 {
		namespaces = []string{state.NamespaceConfig, state.NamespaceMusic, state.NamespaceFM, state.NamespaceQuiz}
	}
	for _, ns := range namespaces {
		if err := s.DeleteNamespace(cmd.Context(), ns); err != nil {
			return fmt.Errorf("reset %s: %w", ns, err)
		}
		if ns == state.NamespaceQuiz {
			if err := s.SaveLeaderboard(cmd.Context(), nil); err != nil {
				return fmt.Errorf("reset leaderboard: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", ns)
	}
	return nil
}
