// SPDX-License-Identifier: MIT

package config

import "errors"

var (
	// ErrInvalidConfig classifies configuration validation failures.
	// Use errors.Is(err, ErrInvalidConfig) instead of string matching.
	ErrInvalidConfig = errors.New("invalid config")
)
