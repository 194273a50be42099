//go:build linux

// Command teachbuttond bridges a CAN teach-pendant button to an external
// motion controller.
//
// It decodes pendant status frames on the configured interface, drives the
// teach/replay state machine and dispatches controller mode changes to a
// hook executable. When a replay hook finishes, the pendant is sent the
// completion signal that turns its LED off.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robohw/teachbutton/button"
	"github.com/robohw/teachbutton/can"
	"github.com/robohw/teachbutton/canbutton"
	"github.com/robohw/teachbutton/internal/config"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("teachbuttond %s\n", version)
		return
	}

	// .env is optional; real environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("daemon failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().
		Timestamp().
		Str("service", "teachbuttond").
		Logger()
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if err := setupLink(cfg, logger); err != nil {
		return err
	}

	transport, err := canbutton.Dial(cfg.Interface, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	handler := buildHandler(ctx, cfg, logger, transport)
	transport.AddObserver(handler)
	defer transport.RemoveObserver(handler)

	logger.Info().
		Str("interface", cfg.Interface).
		Str("controller_hook", cfg.ControllerHook).
		Msg("listening for pendant events")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	return nil
}

// setupLink applies the configured bitrate and brings the interface up.
// Failures are fatal only when a bitrate change was requested; a link that
// is already up needs no privileges.
func setupLink(cfg config.Config, logger zerolog.Logger) error {
	if cfg.Bitrate > 0 {
		if err := can.SetInterfaceDown(cfg.Interface); err != nil {
			return fmt.Errorf("bring %s down: %w", cfg.Interface, err)
		}
		if err := can.ConfigureInterface(cfg.Interface, cfg.Bitrate); err != nil {
			return fmt.Errorf("configure %s: %w", cfg.Interface, err)
		}
		if err := can.SetInterfaceUp(cfg.Interface); err != nil {
			return fmt.Errorf("bring %s up: %w", cfg.Interface, err)
		}
		logger.Info().Uint32("bitrate", cfg.Bitrate).Str("interface", cfg.Interface).Msg("link configured")
		return nil
	}

	up, err := can.IsInterfaceUp(cfg.Interface)
	if err != nil {
		return fmt.Errorf("query %s: %w", cfg.Interface, err)
	}
	if !up {
		if err := can.SetInterfaceUp(cfg.Interface); err != nil {
			return fmt.Errorf("bring %s up: %w", cfg.Interface, err)
		}
	}
	return nil
}

func buildHandler(ctx context.Context, cfg config.Config, logger zerolog.Logger, transport *canbutton.Transport) *button.Handler {
	buttonLog := logger.With().Str("component", "button").Logger()
	opts := []button.Option{
		button.WithCompletionSender(transport),
		button.WithLogFunc(func(msg string) { buttonLog.Info().Msg(msg) }),
	}

	if cfg.ControllerHook == "" {
		logger.Warn().Msg("no controller hook configured, running as monitor")
		return button.NewHandler(opts...)
	}

	runner := &hookRunner{
		ctx:     ctx,
		hook:    cfg.ControllerHook,
		timeout: cfg.HookTimeout.Std(),
		iface:   cfg.Interface,
		log:     logger.With().Str("component", "hook").Logger(),
	}
	opts = append(opts, button.WithControllerSwitch(runner.dispatch))
	handler := button.NewHandler(opts...)
	runner.replayDone = handler.NotifyReplayComplete
	return handler
}
