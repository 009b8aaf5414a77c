// SPDX-License-Identifier: MIT

package transfer

import "errors"

var (
	// ErrProtocol classifies malformed handshake or length-header input.
	ErrProtocol = errors.New("transfer protocol error")

	// ErrPartialTransfer is reported when the peer closed before the
	// declared payload length was received.
	ErrPartialTransfer = errors.New("partial transfer")

	// ErrBusy is returned by the client when the device rejected the
	// transfer because playback is active. Expected, not a fault.
	ErrBusy = errors.New("device busy")

	// ErrRejected is returned by the client when the device replied ERROR.
	ErrRejected = errors.New("transfer rejected by device")
)
