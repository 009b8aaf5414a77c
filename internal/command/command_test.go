// SPDX-License-Identifier: MIT

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		ok      bool
	}{
		{"exact", "PLAY", Play, true},
		{"lowercase", "stop", Stop, true},
		{"mixed case", "LoAd", Load, true},
		{"trailing newline", "GO\n", Go, true},
		{"surrounding whitespace", "  play \r\n", Play, true},
		{"unknown", "REWIND", Command("REWIND"), false},
		{"empty", "", Command(""), false},
		{"garbage bytes", "\x00\x01", Command("\x00\x01"), false},
		{"known prefix only", "PLAYING", Command("PLAYING"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse([]byte(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
