// SPDX-License-Identifier: MIT

// Package config defines the immutable device configuration consumed by the
// daemon and the helpers used to assemble it from environment and flags.
package config

import (
	"fmt"
	"net"
)

// AudioOutput selects where the playback engine routes audio.
type AudioOutput string

const (
	AudioHDMI  AudioOutput = "hdmi"
	AudioLocal AudioOutput = "local"
	AudioBoth  AudioOutput = "both"
)

// Defaults mirror the well-known deployment values.
const (
	DefaultMediaPath      = "/var/lib/videowall/media/current.mp4"
	DefaultStagingDir     = "/var/lib/videowall/staging"
	DefaultMulticastGroup = "239.255.42.1"
	DefaultMulticastPort  = 5000
	DefaultTransferPort   = 5001
	DefaultAPIAddr        = ":8080"
)

// Device holds the full configuration surface of one playback device. It is
// assembled once at startup and never mutated afterwards.
type Device struct {
	// MediaPath is the destination media file played on PLAY/LOAD and
	// replaced by completed file transfers.
	MediaPath string

	// StagingDir is the directory holding in-flight transfer files until
	// they are atomically published onto MediaPath.
	StagingDir string

	// MulticastGroup and MulticastPort define the command channel.
	MulticastGroup string
	MulticastPort  int

	// TransferPort is the TCP port of the file transfer server.
	TransferPort int

	// AudioOutput is handed verbatim to the playback engine.
	AudioOutput AudioOutput

	// APIAddr is the listen address of the HTTP observability endpoint.
	// Empty disables the endpoint.
	APIAddr string

	// LogLevel configures the global logger ("debug", "info", ...).
	LogLevel string
}

// FromEnv builds a Device from VIDEOWALL_* environment variables, falling
// back to the defaults above. Flag handling in cmd/daemon overrides the
// result field by field, so precedence is flags > env > defaults.
func FromEnv() Device {
	return Device{
		MediaPath:      ParseString("VIDEOWALL_MEDIA", DefaultMediaPath),
		StagingDir:     ParseString("VIDEOWALL_STAGING_DIR", DefaultStagingDir),
		MulticastGroup: ParseString("VIDEOWALL_MULTICAST_GROUP", DefaultMulticastGroup),
		MulticastPort:  ParseInt("VIDEOWALL_MULTICAST_PORT", DefaultMulticastPort),
		TransferPort:   ParseInt("VIDEOWALL_TRANSFER_PORT", DefaultTransferPort),
		AudioOutput:    AudioOutput(ParseString("VIDEOWALL_AUDIO", string(AudioHDMI))),
		APIAddr:        ParseString("VIDEOWALL_API_ADDR", DefaultAPIAddr),
		LogLevel:       ParseString("VIDEOWALL_LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration for values the daemon cannot start with.
func (d Device) Validate() error {
	if d.MediaPath == "" {
		return fmt.Errorf("%w: media path is empty", ErrInvalidConfig)
	}
	if d.StagingDir == "" {
		return fmt.Errorf("%w: staging directory is empty", ErrInvalidConfig)
	}
	ip := net.ParseIP(d.MulticastGroup)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("%w: multicast group %q is not an IPv4 address", ErrInvalidConfig, d.MulticastGroup)
	}
	if !ip.IsMulticast() {
		return fmt.Errorf("%w: %q is not a multicast address", ErrInvalidConfig, d.MulticastGroup)
	}
	if d.MulticastPort < 1 || d.MulticastPort > 65535 {
		return fmt.Errorf("%w: multicast port %d out of range", ErrInvalidConfig, d.MulticastPort)
	}
	if d.TransferPort < 1 || d.TransferPort > 65535 {
		return fmt.Errorf("%w: transfer port %d out of range", ErrInvalidConfig, d.TransferPort)
	}
	if d.MulticastPort == d.TransferPort {
		return fmt.Errorf("%w: multicast and transfer port are both %d", ErrInvalidConfig, d.TransferPort)
	}
	switch d.AudioOutput {
	case AudioHDMI, AudioLocal, AudioBoth:
	default:
		return fmt.Errorf("%w: unknown audio output %q", ErrInvalidConfig, d.AudioOutput)
	}
	return nil
}
