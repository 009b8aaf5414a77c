// SPDX-License-Identifier: MIT

// Package testutil provides fakes shared by the package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/ManuGH/videowall/internal/config"
	"github.com/ManuGH/videowall/internal/player"
)

// FakeSession implements player.Session in-process.
type FakeSession struct {
	mu           sync.Mutex
	instructions []player.Instruction
	exited       bool
	killed       bool
	honorQuit    bool
	controlErr   error
	done         chan struct{}
}

func newFakeSession(honorQuit bool, controlErr error) *FakeSession {
	return &FakeSession{
		honorQuit:  honorQuit,
		controlErr: controlErr,
		done:       make(chan struct{}),
	}
}

// Control records the instruction. A session created with honorQuit exits on
// InstructionQuit; a stubborn one keeps running until killed.
func (s *FakeSession) Control(in player.Instruction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controlErr != nil {
		return s.controlErr
	}
	s.instructions = append(s.instructions, in)
	if in == player.InstructionQuit && s.honorQuit {
		s.exitLocked()
	}
	return nil
}

func (s *FakeSession) Alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *FakeSession) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FakeSession) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killed = true
	s.exitLocked()
	return nil
}

// Exit simulates the engine process dying on its own.
func (s *FakeSession) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitLocked()
}

func (s *FakeSession) exitLocked() {
	if !s.exited {
		s.exited = true
		close(s.done)
	}
}

// Instructions returns a copy of all control instructions received.
func (s *FakeSession) Instructions() []player.Instruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]player.Instruction, len(s.instructions))
	copy(out, s.instructions)
	return out
}

// Killed reports whether the session was force-terminated.
func (s *FakeSession) Killed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.killed
}

// FakeEngine implements player.Engine and records every launch.
type FakeEngine struct {
	// LaunchErr, when set, makes Launch fail.
	LaunchErr error
	// StubbornQuit makes sessions ignore the quit instruction so the
	// manager has to kill them.
	StubbornQuit bool
	// ControlErr is injected into every session's Control.
	ControlErr error

	mu       sync.Mutex
	sessions []*FakeSession
}

func (e *FakeEngine) Launch(mediaPath string, audio config.AudioOutput) (player.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	s := newFakeSession(!e.StubbornQuit, e.ControlErr)
	e.sessions = append(e.sessions, s)
	return s, nil
}

// Launches returns how many sessions were started.
func (e *FakeEngine) Launches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// LastSession returns the most recently launched session, nil if none.
func (e *FakeEngine) LastSession() *FakeSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sessions) == 0 {
		return nil
	}
	return e.sessions[len(e.sessions)-1]
}
