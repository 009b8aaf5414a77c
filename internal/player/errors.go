// SPDX-License-Identifier: MIT

package player

import "errors"

var (
	// ErrMediaNotFound is returned when the media file does not exist at start time.
	ErrMediaNotFound = errors.New("media file not found")

	// ErrEngineSpawn is returned when the playback engine cannot be launched.
	ErrEngineSpawn = errors.New("failed to launch playback engine")

	// ErrNotLoaded is returned by Resume when no preloaded session exists.
	ErrNotLoaded = errors.New("no loaded session to resume")

	// ErrSessionActive is returned by Start while a session is already live.
	ErrSessionActive = errors.New("playback session already active")
)
