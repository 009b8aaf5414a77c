// SPDX-License-Identifier: MIT

package transfer

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

const (
	// dialTimeout covers connect plus the READY/BUSY handshake.
	dialTimeout = 10 * time.Second

	// ackTimeout covers the final OK/ERROR reply after the payload. The
	// device may still be fsyncing and renaming a large file.
	ackTimeout = 30 * time.Second
)

// Send streams the file at path to a device's transfer endpoint. progress,
// if non-nil, is invoked after every chunk with sent and total byte counts.
//
// The device answering BUSY yields ErrBusy; an ERROR reply yields
// ErrRejected. No retry is attempted, callers re-initiate a new connection.
func Send(ctx context.Context, addr, path string, progress func(sent, total int64)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	total := st.Size()

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)

	if err := conn.SetReadDeadline(time.Now().Add(dialTimeout)); err != nil {
		return err
	}
	greeting, err := readLine(r)
	if err != nil {
		return fmt.Errorf("%w: no handshake reply: %v", ErrProtocol, err)
	}
	switch greeting {
	case "READY":
	case "BUSY":
		return ErrBusy
	default:
		return fmt.Errorf("%w: unexpected handshake reply %q", ErrProtocol, greeting)
	}

	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, uint64(total))
	if _, err := conn.Write(header); err != nil {
		return fmt.Errorf("send length header: %w", err)
	}

	var sent int64
	buf := make([]byte, chunkSize)
	for sent < total {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return fmt.Errorf("send payload: %w", werr)
			}
			sent += int64(n)
			if progress != nil {
				progress(sent, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	if sent != total {
		return fmt.Errorf("%w: sent %d of %d bytes", ErrPartialTransfer, sent, total)
	}

	if err := conn.SetReadDeadline(time.Now().Add(ackTimeout)); err != nil {
		return err
	}
	result, err := readLine(r)
	if err != nil {
		return fmt.Errorf("%w: no transfer result: %v", ErrProtocol, err)
	}
	if result != "OK" {
		return ErrRejected
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
