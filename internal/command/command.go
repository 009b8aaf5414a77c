// SPDX-License-Identifier: MIT

// Package command receives broadcast playback commands over UDP multicast.
package command

import "strings"

// Command is one of the four known broadcast commands.
type Command string

const (
	Play Command = "PLAY"
	Stop Command = "STOP"
	Load Command = "LOAD"
	Go   Command = "GO"
)

// Parse normalizes a raw datagram payload (trim + upper-case) and reports
// whether it names a known command. Unknown payloads are returned normalized
// so callers can log them.
func Parse(payload []byte) (Command, bool) {
	s := strings.ToUpper(strings.TrimSpace(string(payload)))
	switch Command(s) {
	case Play, Stop, Load, Go:
		return Command(s), true
	}
	return Command(s), false
}
