// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDevice() Device {
	return Device{
		MediaPath:      "/var/lib/videowall/media/current.mp4",
		StagingDir:     "/var/lib/videowall/staging",
		MulticastGroup: "239.255.42.1",
		MulticastPort:  5000,
		TransferPort:   5001,
		AudioOutput:    AudioHDMI,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Device)
		wantErr bool
	}{
		{"valid", func(d *Device) {}, false},
		{"audio local", func(d *Device) { d.AudioOutput = AudioLocal }, false},
		{"audio both", func(d *Device) { d.AudioOutput = AudioBoth }, false},
		{"empty media path", func(d *Device) { d.MediaPath = "" }, true},
		{"empty staging dir", func(d *Device) { d.StagingDir = "" }, true},
		{"group not an address", func(d *Device) { d.MulticastGroup = "not-an-ip" }, true},
		{"group not multicast", func(d *Device) { d.MulticastGroup = "192.168.1.10" }, true},
		{"group is ipv6", func(d *Device) { d.MulticastGroup = "ff02::1" }, true},
		{"multicast port zero", func(d *Device) { d.MulticastPort = 0 }, true},
		{"transfer port too high", func(d *Device) { d.TransferPort = 70000 }, true},
		{"port collision", func(d *Device) { d.TransferPort = 5000 }, true},
		{"unknown audio", func(d *Device) { d.AudioOutput = "spdif" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDevice()
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("VIDEOWALL_MEDIA", "/tmp/wall/current.mp4")
	t.Setenv("VIDEOWALL_MULTICAST_PORT", "6000")
	t.Setenv("VIDEOWALL_AUDIO", "local")

	d := FromEnv()
	assert.Equal(t, "/tmp/wall/current.mp4", d.MediaPath)
	assert.Equal(t, 6000, d.MulticastPort)
	assert.Equal(t, AudioLocal, d.AudioOutput)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultMulticastGroup, d.MulticastGroup)
	assert.Equal(t, DefaultTransferPort, d.TransferPort)
	require.NoError(t, d.Validate())
}

func TestFromEnvInvalidIntFallsBack(t *testing.T) {
	t.Setenv("VIDEOWALL_TRANSFER_PORT", "not-a-number")
	d := FromEnv()
	assert.Equal(t, DefaultTransferPort, d.TransferPort)
}
