// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"

	"github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/metrics"
)

// pollInterval bounds how long the receive loop blocks before checking for
// shutdown. Shutdown latency is at most one interval.
const pollInterval = 1 * time.Second

// Handler is invoked for every recognized command.
type Handler func(Command)

// Listener joins a multicast group and dispatches received commands.
type Listener struct {
	group string
	port  int

	mu   sync.Mutex
	addr net.Addr

	logger zerolog.Logger
}

// NewListener creates a listener for the given multicast group and port.
func NewListener(group string, port int) *Listener {
	return &Listener{
		group:  group,
		port:   port,
		logger: log.WithComponent("command"),
	}
}

// Addr returns the bound local address once Run has opened the socket, nil
// before that.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Run binds the socket, joins the multicast group and loops until ctx is
// cancelled. Malformed datagrams are dropped, never fatal.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: l.port})
	if err != nil {
		return fmt.Errorf("bind multicast port %d: %w", l.port, err)
	}
	defer conn.Close()

	l.mu.Lock()
	l.addr = conn.LocalAddr()
	l.mu.Unlock()

	if err := joinGroup(conn, l.group); err != nil {
		l.logger.Warn().
			Err(err).
			Str(log.FieldGroup, l.group).
			Str("event", "command.join_failed").
			Msg("multicast join failed, receiving unicast only")
	}

	l.logger.Info().
		Str("event", "command.listening").
		Str(log.FieldGroup, l.group).
		Int(log.FieldPort, l.port).
		Msg("listening for multicast commands")

	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error().
				Err(err).
				Str("event", "command.receive_failed").
				Msg("multicast receive error")
			continue
		}

		cmd, ok := Parse(buf[:n])
		if !ok {
			metrics.CommandsDropped.Inc()
			l.logger.Debug().
				Str(log.FieldCommand, string(cmd)).
				Str(log.FieldRemoteAddr, src.String()).
				Str("event", "command.unknown").
				Msg("ignoring unknown command")
			continue
		}

		metrics.CommandsReceived.WithLabelValues(string(cmd)).Inc()
		l.logger.Debug().
			Str(log.FieldCommand, string(cmd)).
			Str(log.FieldRemoteAddr, src.String()).
			Str("event", "command.received").
			Msg("command received")
		handle(cmd)
	}
}

// joinGroup joins the multicast group on every eligible interface.
func joinGroup(conn *net.UDPConn, group string) error {
	ip := net.ParseIP(group)
	if ip == nil {
		return fmt.Errorf("invalid multicast group %q", group)
	}

	pc := ipv4.NewPacketConn(conn)
	dst := &net.UDPAddr{IP: ip}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}

	joined := 0
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pc.JoinGroup(iface, dst); err == nil {
			joined++
		}
	}
	if joined == 0 {
		return fmt.Errorf("no interface joined group %s", group)
	}
	return nil
}
