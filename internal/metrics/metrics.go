// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus collectors for the device daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsReceived tracks received multicast commands by name.
	CommandsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videowall_commands_received_total",
		Help: "Total multicast commands received",
	}, []string{"command"})

	// CommandsDropped tracks datagrams that did not match a known command.
	CommandsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videowall_commands_dropped_total",
		Help: "Total unrecognized command datagrams dropped",
	})

	// Transfers tracks completed transfer attempts by result (ok, error, busy).
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videowall_transfers_total",
		Help: "Total file transfer attempts by result",
	}, []string{"result"})

	// TransferBytes tracks payload bytes received over the transfer channel.
	TransferBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videowall_transfer_bytes_total",
		Help: "Total payload bytes received over the file transfer channel",
	})

	// PlaybackSessions tracks started playback sessions by mode (play, preload).
	PlaybackSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videowall_playback_sessions_total",
		Help: "Total playback sessions started by mode",
	}, []string{"mode"})

	// EngineTerminations tracks how playback sessions ended
	// (graceful, forced, crashed).
	EngineTerminations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videowall_engine_terminations_total",
		Help: "Total playback engine terminations by mode",
	}, []string{"mode"})
)
