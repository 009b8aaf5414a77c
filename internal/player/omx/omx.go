// SPDX-License-Identifier: MIT

// Package omx drives omxplayer as the playback engine. Control input goes
// over the child's stdin: "p" toggles pause, "q" quits.
package omx

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/player"
	"github.com/ManuGH/videowall/internal/procgroup"
)

const binary = "omxplayer"

// Engine launches omxplayer sessions.
type Engine struct {
	logger zerolog.Logger
}

// New creates an omxplayer engine.
func New() *Engine {
	return &Engine{logger: log.WithComponent("omx")}
}

// Launch starts omxplayer for the given media file. The child is spawned as
// a process group leader so a forced kill reaps any children it forks.
func (e *Engine) Launch(mediaPath string, audio config.AudioOutput) (player.Session, error) {
	cmd := exec.Command(binary,
		"-o", string(audio),
		"--no-osd",
		"--aspect-mode", "letterbox",
		mediaPath,
	)
	procgroup.Set(cmd)

	control, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open control channel: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = control.Close()
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	e.logger.Info().
		Str("event", "omx.launched").
		Int(log.FieldPID, cmd.Process.Pid).
		Str(log.FieldPath, mediaPath).
		Str("audio", string(audio)).
		Msg("omxplayer started")

	s := &session{
		cmd:     cmd,
		control: control,
		done:    make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		_ = control.Close()
		close(s.done)
	}()
	return s, nil
}

// session is the opaque handle for one running omxplayer instance.
type session struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	control io.WriteCloser
}

func (s *session) Control(in player.Instruction) error {
	var b []byte
	switch in {
	case player.InstructionPause, player.InstructionResume:
		// omxplayer only has a pause toggle.
		b = []byte("p")
	case player.InstructionQuit:
		b = []byte("q")
	default:
		return fmt.Errorf("unknown instruction %d", in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alive() {
		return fmt.Errorf("control %q: session has exited", b)
	}
	if _, err := s.control.Write(b); err != nil {
		return fmt.Errorf("control %q: %w", b, err)
	}
	return nil
}

func (s *session) Alive() bool {
	return s.alive()
}

func (s *session) alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) Kill() error {
	err := procgroup.Kill(s.cmd, syscall.SIGKILL)
	// Wait for the reaper goroutine so the exit is observed before the
	// caller clears its handle.
	<-s.done
	return err
}
