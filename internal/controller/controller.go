// SPDX-License-Identifier: MIT

// Package controller composes the playback manager, the command listener and
// the file transfer server, and enforces the transfer/playback mutual
// exclusion policy. It is the only component that routes commands into the
// playback state machine.
package controller

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/videowall/internal/command"
	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/player"
	"github.com/ManuGH/videowall/internal/transfer"
)

// Controller orchestrates one playback device.
type Controller struct {
	cfg       config.Device
	player    *player.Manager
	listener  *command.Listener
	transfers *transfer.Server
	logger    zerolog.Logger
}

// New wires a controller around the given playback manager. The transfer
// server's can-receive predicate is exactly "no playback session active".
func New(cfg config.Device, mgr *player.Manager) *Controller {
	c := &Controller{
		cfg:    cfg,
		player: mgr,
		logger: log.WithComponent("controller"),
	}
	c.listener = command.NewListener(cfg.MulticastGroup, cfg.MulticastPort)
	c.transfers = transfer.NewServer(
		cfg.TransferPort,
		cfg.MediaPath,
		cfg.StagingDir,
		func() bool { return !mgr.Active() },
	)
	return c
}

// Dispatch applies one broadcast command to the playback state machine.
// Commands arriving while a file transfer is mid-stream never start
// playback.
func (c *Controller) Dispatch(cmd command.Command) {
	switch cmd {
	case command.Play:
		c.start(false)
	case command.Load:
		c.start(true)
	case command.Stop:
		if !c.player.Stop() {
			c.logger.Debug().
				Str(log.FieldCommand, string(cmd)).
				Msg("nothing to stop")
		}
	case command.Go:
		if err := c.player.Resume(); err != nil {
			if errors.Is(err, player.ErrNotLoaded) {
				c.logger.Debug().
					Str(log.FieldCommand, string(cmd)).
					Msg("GO ignored, no loaded session")
				return
			}
			c.logger.Error().
				Err(err).
				Str(log.FieldCommand, string(cmd)).
				Msg("resume failed")
		}
	}
}

func (c *Controller) start(paused bool) {
	cmd := command.Play
	if paused {
		cmd = command.Load
	}

	if c.transfers.Receiving() {
		c.logger.Warn().
			Str(log.FieldCommand, string(cmd)).
			Str("event", "controller.command_blocked").
			Msg("ignoring command, file transfer in progress")
		return
	}
	if c.player.Active() {
		c.logger.Info().
			Str(log.FieldCommand, string(cmd)).
			Msg("already playing or loaded")
		return
	}

	if err := c.player.Start(paused); err != nil {
		c.logger.Error().
			Err(err).
			Str(log.FieldCommand, string(cmd)).
			Str("event", "controller.start_failed").
			Msg("failed to start playback")
	}
}

// Status reports the current playback status.
func (c *Controller) Status() player.Status {
	return c.player.Status()
}

// TransferActive reports whether a file transfer is mid-stream.
func (c *Controller) TransferActive() bool {
	return c.transfers.Receiving()
}

// Run starts both listener loops and blocks until ctx is cancelled or one of
// them fails to bind. On shutdown any live playback session is terminated.
func (c *Controller) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.listener.Run(ctx, c.Dispatch)
	})
	g.Go(func() error {
		return c.transfers.Run(ctx)
	})

	err := g.Wait()

	if c.player.Stop() {
		c.logger.Info().
			Str("event", "controller.shutdown_stop").
			Msg("stopped playback on shutdown")
	}
	return err
}
