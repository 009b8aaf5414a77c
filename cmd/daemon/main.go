// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/videowall/internal/api"
	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/controller"
	vwlog "github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/player"
	"github.com/ManuGH/videowall/internal/player/omx"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Bind the logger before anything logs; the level is re-applied below
	// once flags are parsed.
	vwlog.Configure(vwlog.Config{
		Service: "videowall",
		Version: version,
	})

	// Flag defaults come from the environment, so precedence is
	// flags > VIDEOWALL_* env > built-in defaults.
	env := config.FromEnv()

	showVersion := flag.Bool("version", false, "print version and exit")
	mediaPath := flag.String("media", env.MediaPath, "path to the media file")
	stagingDir := flag.String("staging-dir", env.StagingDir, "directory for in-flight transfers")
	group := flag.String("multicast-group", env.MulticastGroup, "multicast group address")
	port := flag.Int("multicast-port", env.MulticastPort, "multicast command port")
	transferPort := flag.Int("transfer-port", env.TransferPort, "file transfer port")
	audio := flag.String("audio", string(env.AudioOutput), "audio output (hdmi|local|both)")
	apiAddr := flag.String("api-addr", env.APIAddr, "HTTP status/metrics listen address (empty disables)")
	logLevel := flag.String("log-level", env.LogLevel, "log level")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg := config.Device{
		MediaPath:      *mediaPath,
		StagingDir:     *stagingDir,
		MulticastGroup: *group,
		MulticastPort:  *port,
		TransferPort:   *transferPort,
		AudioOutput:    config.AudioOutput(*audio),
		APIAddr:        *apiAddr,
		LogLevel:       *logLevel,
	}

	vwlog.Configure(vwlog.Config{Level: cfg.LogLevel})
	logger := vwlog.WithComponent("daemon")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("invalid configuration")
	}

	for _, dir := range []string{filepath.Dir(cfg.MediaPath), cfg.StagingDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().
				Err(err).
				Str(vwlog.FieldPath, dir).
				Str("event", "startup.mkdir_failed").
				Msg("failed to create directory")
		}
	}

	logger.Info().
		Str("event", "startup").
		Str(vwlog.FieldPath, cfg.MediaPath).
		Str(vwlog.FieldGroup, cfg.MulticastGroup).
		Int(vwlog.FieldPort, cfg.MulticastPort).
		Int("transfer_port", cfg.TransferPort).
		Str("audio", string(cfg.AudioOutput)).
		Msg("starting video playback device")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := player.NewManager(omx.New(), cfg.MediaPath, cfg.AudioOutput)
	ctrl := controller.New(cfg, mgr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})
	if cfg.APIAddr != "" {
		apiServer := api.NewServer(cfg.APIAddr, ctrl, cfg.MediaPath, version)
		g.Go(func() error {
			return apiServer.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon exited with error")
	}
	logger.Info().
		Str("event", "shutdown.complete").
		Msg("shutdown complete")
}
