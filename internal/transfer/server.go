// SPDX-License-Identifier: MIT

// Package transfer implements the point-to-point media replacement protocol:
//
//	Server → Client: "READY\n" | "BUSY\n"
//	Client → Server: 8 bytes payload length (unsigned big-endian)
//	Client → Server: payload
//	Server → Client: "OK\n" | "ERROR\n"
//
// The server accepts one connection at a time and only publishes the
// destination file by an atomic rename of a fully received staging file.
package transfer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/videowall/internal/log"
	"github.com/ManuGH/videowall/internal/metrics"
)

const (
	// pollInterval bounds the accept wait so shutdown is observed promptly.
	pollInterval = 1 * time.Second

	// ioTimeout is the per-read deadline while receiving header and payload.
	// A peer that stalls longer than this aborts the transfer.
	ioTimeout = 30 * time.Second

	// chunkSize is the streaming copy buffer size.
	chunkSize = 64 * 1024

	replyReady = "READY\n"
	replyBusy  = "BUSY\n"
	replyOK    = "OK\n"
	replyError = "ERROR\n"
)

// Server accepts replacement media files while playback is idle.
type Server struct {
	port       int
	destPath   string
	stagingDir string
	canReceive func() bool

	mu        sync.Mutex
	addr      net.Addr
	receiving bool

	logger zerolog.Logger
}

// NewServer creates a transfer server publishing to destPath. canReceive is
// consulted once per accepted connection; a false answer sends BUSY and
// closes immediately.
func NewServer(port int, destPath, stagingDir string, canReceive func() bool) *Server {
	return &Server{
		port:       port,
		destPath:   destPath,
		stagingDir: stagingDir,
		canReceive: canReceive,
		logger:     log.WithComponent("transfer"),
	}
}

// Receiving reports whether a transfer is currently mid-stream.
func (s *Server) Receiving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiving
}

// Addr returns the bound listen address once Run has opened the socket.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) setReceiving(v bool) {
	s.mu.Lock()
	s.receiving = v
	s.mu.Unlock()
}

// Run listens for transfer connections until ctx is cancelled. Connections
// are handled synchronously, one at a time; errors are contained per
// connection and never end the loop.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: s.port})
	if err != nil {
		return fmt.Errorf("bind transfer port %d: %w", s.port, err)
	}
	defer ln.Close()

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info().
		Str("event", "transfer.listening").
		Int(log.FieldPort, s.port).
		Str(log.FieldPath, s.destPath).
		Msg("file transfer server listening")

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := ln.SetDeadline(time.Now().Add(pollInterval)); err != nil {
			return fmt.Errorf("set accept deadline: %w", err)
		}
		conn, err := ln.Accept()
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error().
				Err(err).
				Str("event", "transfer.accept_failed").
				Msg("accept error")
			continue
		}

		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	logger := s.logger.With().
		Str(log.FieldTransferID, uuid.NewString()).
		Str(log.FieldRemoteAddr, conn.RemoteAddr().String()).
		Logger()

	if !s.canReceive() {
		s.reply(conn, replyBusy, logger)
		metrics.Transfers.WithLabelValues("busy").Inc()
		logger.Warn().
			Str("event", "transfer.rejected").
			Msg("rejecting file transfer, playback in progress")
		return
	}

	s.setReceiving(true)
	defer s.setReceiving(false)

	s.reply(conn, replyReady, logger)

	declared, err := s.readLength(conn)
	if err != nil {
		s.reply(conn, replyError, logger)
		metrics.Transfers.WithLabelValues("error").Inc()
		logger.Error().
			Err(err).
			Str("event", "transfer.bad_header").
			Msg("failed to read length header")
		return
	}

	logger.Info().
		Str("event", "transfer.started").
		Uint64(log.FieldBytesDeclared, declared).
		Msg("receiving file")

	received, err := s.receive(conn, declared)
	metrics.TransferBytes.Add(float64(received))
	if err != nil {
		s.reply(conn, replyError, logger)
		metrics.Transfers.WithLabelValues("error").Inc()
		logger.Error().
			Err(err).
			Uint64(log.FieldBytesDeclared, declared).
			Uint64(log.FieldBytesReceived, received).
			Str("event", "transfer.failed").
			Msg("transfer failed, destination untouched")
		return
	}

	s.reply(conn, replyOK, logger)
	metrics.Transfers.WithLabelValues("ok").Inc()
	logger.Info().
		Str("event", "transfer.completed").
		Uint64(log.FieldBytesReceived, received).
		Str(log.FieldPath, s.destPath).
		Msg("file published")
}

// readLength reads the 8-byte unsigned big-endian payload length.
func (s *Server) readLength(conn net.Conn) (uint64, error) {
	if err := conn.SetReadDeadline(time.Now().Add(ioTimeout)); err != nil {
		return 0, err
	}
	header := make([]byte, 8)
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, fmt.Errorf("%w: short length header: %v", ErrProtocol, err)
	}
	declared := binary.BigEndian.Uint64(header)
	if declared > math.MaxInt64 {
		return 0, fmt.Errorf("%w: declared length %d overflows", ErrProtocol, declared)
	}
	return declared, nil
}

// receive streams declared bytes into a staging file and atomically renames
// it onto the destination on full receipt. On any shortfall the staging file
// is removed and the destination is left untouched.
func (s *Server) receive(conn net.Conn, declared uint64) (uint64, error) {
	pending, err := renameio.NewPendingFile(s.destPath, renameio.WithTempDir(s.stagingDir))
	if err != nil {
		return 0, fmt.Errorf("create staging file: %w", err)
	}
	defer func() {
		// No-op once the pending file was committed.
		if err := pending.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup staging file")
		}
	}()

	var received uint64
	buf := make([]byte, chunkSize)
	for received < declared {
		want := uint64(len(buf))
		if remaining := declared - received; remaining < want {
			want = remaining
		}
		if err := conn.SetReadDeadline(time.Now().Add(ioTimeout)); err != nil {
			return received, err
		}
		n, err := conn.Read(buf[:want])
		if n > 0 {
			if _, werr := pending.Write(buf[:n]); werr != nil {
				return received, fmt.Errorf("write staging file: %w", werr)
			}
			received += uint64(n)
		}
		if err != nil {
			// The peer may deliver the final bytes together with EOF.
			if received == declared {
				break
			}
			return received, fmt.Errorf("%w: %d of %d bytes: %v", ErrPartialTransfer, received, declared, err)
		}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return received, fmt.Errorf("publish %s: %w", s.destPath, err)
	}
	return received, nil
}

func (s *Server) reply(conn net.Conn, line string, logger zerolog.Logger) {
	if err := conn.SetWriteDeadline(time.Now().Add(ioTimeout)); err != nil {
		return
	}
	if _, err := io.WriteString(conn, line); err != nil {
		logger.Debug().
			Err(err).
			Str("event", "transfer.reply_failed").
			Msg("failed to send protocol reply")
	}
}
