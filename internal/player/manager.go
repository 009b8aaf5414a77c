// SPDX-License-Identifier: MIT

// Package player owns the lifecycle of at most one playback session and the
// state machine that gates start, preload, resume and stop.
package player

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/metrics"
)

// Status is the playback state of the device.
type Status int

const (
	StatusIdle Status = iota
	StatusLoaded
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoaded:
		return "loaded"
	case StatusPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

const (
	// defaultPauseGrace is the fixed wait between launching the engine and
	// sending the initial pause for a preload. The engine accepts control
	// input only after startup and offers no ready signal, so this is a
	// grace period, not a reliable synchronization primitive.
	defaultPauseGrace = 500 * time.Millisecond

	// defaultQuitTimeout bounds the graceful-quit wait before the whole
	// process group is killed.
	defaultQuitTimeout = 2 * time.Second
)

// Manager serializes all playback state transitions behind a single lock.
// At most one session handle is live at any time.
type Manager struct {
	engine    Engine
	mediaPath string
	audio     config.AudioOutput

	pauseGrace  time.Duration
	quitTimeout time.Duration

	mu      sync.Mutex
	session Session
	status  Status

	logger zerolog.Logger
}

// Option adjusts manager timing knobs.
type Option func(*Manager)

// WithPauseGrace overrides the preload grace period.
func WithPauseGrace(d time.Duration) Option {
	return func(m *Manager) { m.pauseGrace = d }
}

// WithQuitTimeout overrides the graceful-quit wait.
func WithQuitTimeout(d time.Duration) Option {
	return func(m *Manager) { m.quitTimeout = d }
}

// NewManager creates a manager driving the given engine.
func NewManager(engine Engine, mediaPath string, audio config.AudioOutput, opts ...Option) *Manager {
	m := &Manager{
		engine:      engine,
		mediaPath:   mediaPath,
		audio:       audio,
		pauseGrace:  defaultPauseGrace,
		quitTimeout: defaultQuitTimeout,
		status:      StatusIdle,
		logger:      log.WithComponent("player"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches a playback session. With paused=true the session is
// preloaded: the engine is paused right after the grace period and waits
// for Resume.
func (m *Manager) Start(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshLocked()
	if m.session != nil {
		return ErrSessionActive
	}

	if _, err := os.Stat(m.mediaPath); err != nil {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, m.mediaPath)
	}

	sess, err := m.engine.Launch(m.mediaPath, m.audio)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineSpawn, err)
	}
	m.session = sess

	mode := "play"
	next := StatusPlaying
	if paused {
		mode = "preload"
		next = StatusLoaded

		// Grace period before the engine accepts control input.
		time.Sleep(m.pauseGrace)
		if err := sess.Control(InstructionPause); err != nil {
			m.logger.Warn().
				Err(err).
				Str("event", "player.pause_failed").
				Msg("initial pause failed, session may be playing")
		}
	}

	metrics.PlaybackSessions.WithLabelValues(mode).Inc()
	m.transitionLocked(next)
	m.logger.Info().
		Str("event", "player.started").
		Str("mode", mode).
		Str(log.FieldPath, m.mediaPath).
		Msg("playback session started")
	return nil
}

// Resume unpauses a preloaded session. It is a no-op failure unless the
// current status is Loaded.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshLocked()
	if m.status != StatusLoaded {
		return ErrNotLoaded
	}

	if err := m.session.Control(InstructionResume); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	m.transitionLocked(StatusPlaying)
	m.logger.Info().
		Str("event", "player.resumed").
		Msg("playback resumed")
	return nil
}

// Stop terminates the current session: graceful quit, bounded wait, then a
// kill of the entire process group. It always clears the session state and
// is idempotent — stopping an idle manager reports false ("nothing to stop")
// without error.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshLocked()
	if m.session == nil {
		return false
	}
	sess := m.session

	if err := sess.Control(InstructionQuit); err != nil {
		m.logger.Debug().
			Err(err).
			Str("event", "player.quit_send_failed").
			Msg("quit instruction failed, falling through to wait")
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.quitTimeout)
	defer cancel()
	if err := sess.Wait(ctx); err != nil {
		m.logger.Warn().
			Str("event", "player.force_kill").
			Dur("timeout", m.quitTimeout).
			Msg("engine did not quit in time, killing process group")
		if err := sess.Kill(); err != nil {
			m.logger.Error().
				Err(err).
				Str("event", "player.kill_failed").
				Msg("failed to kill engine process group")
		}
		metrics.EngineTerminations.WithLabelValues("forced").Inc()
	} else {
		metrics.EngineTerminations.WithLabelValues("graceful").Inc()
	}

	m.session = nil
	m.transitionLocked(StatusIdle)
	m.logger.Info().
		Str("event", "player.stopped").
		Msg("playback session stopped")
	return true
}

// Active reports whether a playback session is live. A session whose engine
// exited spontaneously is reaped here, transitioning back to Idle.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked()
	return m.session != nil
}

// Status returns the current playback status after a liveness check.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshLocked()
	return m.status
}

// refreshLocked reaps a session whose engine exited on its own. Callers must
// hold m.mu.
func (m *Manager) refreshLocked() {
	if m.session == nil || m.session.Alive() {
		return
	}
	m.logger.Warn().
		Str("event", "player.engine_exited").
		Str(log.FieldOldState, m.status.String()).
		Msg("engine exited spontaneously, resetting to idle")
	metrics.EngineTerminations.WithLabelValues("crashed").Inc()
	m.session = nil
	m.transitionLocked(StatusIdle)
}

// transitionLocked records a state change. Callers must hold m.mu.
func (m *Manager) transitionLocked(next Status) {
	if m.status == next {
		return
	}
	m.logger.Debug().
		Str(log.FieldOldState, m.status.String()).
		Str(log.FieldNewState, next.String()).
		Msg("playback state transition")
	m.status = next
}
