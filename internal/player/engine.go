// SPDX-License-Identifier: MIT

package player

import (
	"context"

	"github.com/ManuGH/videowall/internal/config"
)

// Instruction is a control input accepted by a running playback session.
type Instruction byte

const (
	// InstructionPause pauses a running session.
	InstructionPause Instruction = iota
	// InstructionResume resumes a paused session. Engines whose control
	// channel only has a pause toggle map this to the same input as pause.
	InstructionResume
	// InstructionQuit asks the session to terminate gracefully.
	InstructionQuit
)

// Engine launches playback sessions for a media file. Implementations wrap
// whatever mechanism actually renders video; the manager only depends on
// this capability surface so tests can substitute a fake.
type Engine interface {
	Launch(mediaPath string, audio config.AudioOutput) (Session, error)
}

// Session is an opaque handle to one running engine instance.
type Session interface {
	// Control sends an instruction over the session's control channel.
	Control(in Instruction) error

	// Alive reports whether the engine process is still running.
	Alive() bool

	// Wait blocks until the engine exits or ctx is done.
	Wait(ctx context.Context) error

	// Kill forcibly terminates the session's entire process group.
	Kill() error
}
