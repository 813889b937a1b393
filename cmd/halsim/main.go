package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/rvhal/internal/config"
	"github.com/danmuck/rvhal/internal/demo"
	"github.com/danmuck/rvhal/internal/firmware"
	"github.com/danmuck/rvhal/internal/hal"
	"github.com/danmuck/rvhal/internal/inspector"
	"github.com/danmuck/rvhal/internal/logging"
	"github.com/danmuck/rvhal/internal/observability"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to a sim config (defaults when empty)")
	flag.Parse()

	logging.ConfigureRuntime()
	logger := observability.InitLogger("halsim")

	cfg := config.DefaultSimConfig()
	if *configPath != "" {
		loaded, err := config.LoadSimConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "halsim: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "halsim: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.SimConfig, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw := cfg.FirmwareConfig()
	fw.Console = os.Stdout
	fw.Radio = firmware.NewSimRadio(cfg.Network)
	fw.Logger = logger
	m := firmware.New(fw)
	defer m.Close()

	if cfg.InspectorAddr != "" {
		srv := inspector.New(cfg.Machine.Name, m, cfg.CORSOrigins, logger)
		go func() {
			if err := srv.Serve(ctx, cfg.InspectorAddr); err != nil {
				logger.Error().Err(err).Str("addr", cfg.InspectorAddr).Msg("inspector stopped")
			}
		}()
	}

	logger.Info().
		Str("machine", cfg.Machine.Name).
		Str("ssid", cfg.Guest.SSID).
		Uint32("port", cfg.Guest.Port).
		Msg("booting guest")

	err := demo.Run(ctx, hal.New(m), cfg.Guest)
	logger.Info().
		Str("state", m.State().String()).
		Uint32("exit_code", m.ExitCode()).
		Msg("guest stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
