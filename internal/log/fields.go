// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldComponent  = "component"
	FieldEvent      = "event"
	FieldTransferID = "transfer_id"

	// Command / playback fields
	FieldCommand  = "command"
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldPID      = "pid"

	// Path fields
	FieldPath        = "path"
	FieldStagingPath = "staging_path"

	// Network fields
	FieldRemoteAddr = "remote_addr"
	FieldGroup      = "group"
	FieldPort       = "port"

	// Transfer fields
	FieldBytesDeclared = "bytes_declared"
	FieldBytesReceived = "bytes_received"
)
