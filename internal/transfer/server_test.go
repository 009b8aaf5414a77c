// SPDX-License-Identifier: MIT

package transfer_test

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/videowall/internal/transfer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	srv     *transfer.Server
	addr    string
	dest    string
	staging string
}

// startServer runs a transfer server on an ephemeral port and tears it down
// with the test.
func startServer(t *testing.T, canReceive func() bool) fixture {
	t.Helper()

	dir := t.TempDir()
	dest := filepath.Join(dir, "current.mp4")
	staging := filepath.Join(dir, "staging")
	require.NoError(t, os.MkdirAll(staging, 0o755))

	srv := transfer.NewServer(0, dest, staging, canReceive)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	require.Eventually(t, func() bool { return srv.Addr() != nil },
		2*time.Second, 5*time.Millisecond, "server did not bind")

	return fixture{srv: srv, addr: srv.Addr().String(), dest: dest, staging: staging}
}

func dial(t *testing.T, addr string) (*net.TCPConn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	tcp, ok := conn.(*net.TCPConn)
	require.True(t, ok)
	t.Cleanup(func() { _ = tcp.Close() })
	return tcp, bufio.NewReader(tcp)
}

func readReply(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func lengthHeader(n uint64) []byte {
	header := make([]byte, 8)
	binary.BigEndian.PutUint64(header, n)
	return header
}

func TestRoundTrip(t *testing.T) {
	fx := startServer(t, func() bool { return true })

	payload := make([]byte, 200*1024)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	conn, r := dial(t, fx.addr)
	assert.Equal(t, "READY\n", readReply(t, r))

	_, err = conn.Write(lengthHeader(uint64(len(payload))))
	require.NoError(t, err)
	_, err = conn.Write(payload)
	require.NoError(t, err)

	assert.Equal(t, "OK\n", readReply(t, r))

	got, err := os.ReadFile(fx.dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "destination differs from sent payload")

	entries, err := os.ReadDir(fx.staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory not cleaned up")
}

func TestBusyRejection(t *testing.T) {
	fx := startServer(t, func() bool { return false })

	conn, r := dial(t, fx.addr)
	assert.Equal(t, "BUSY\n", readReply(t, r))

	// The server closes without reading anything further.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := r.ReadByte()
	assert.Error(t, err)

	_, err = os.Stat(fx.dest)
	assert.True(t, os.IsNotExist(err), "destination must be untouched")
}

func TestPartialTransferLeavesDestinationUntouched(t *testing.T) {
	fx := startServer(t, func() bool { return true })

	before := []byte("previous media content")
	require.NoError(t, os.WriteFile(fx.dest, before, 0o644))

	conn, r := dial(t, fx.addr)
	assert.Equal(t, "READY\n", readReply(t, r))

	// Declare 1000 bytes, deliver only 400, then half-close.
	_, err := conn.Write(lengthHeader(1000))
	require.NoError(t, err)
	_, err = conn.Write(make([]byte, 400))
	require.NoError(t, err)
	require.NoError(t, conn.CloseWrite())

	assert.Equal(t, "ERROR\n", readReply(t, r))

	got, err := os.ReadFile(fx.dest)
	require.NoError(t, err)
	assert.Equal(t, before, got, "destination changed by failed transfer")

	entries, err := os.ReadDir(fx.staging)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging file not removed")
}

func TestShortLengthHeader(t *testing.T) {
	fx := startServer(t, func() bool { return true })

	conn, r := dial(t, fx.addr)
	assert.Equal(t, "READY\n", readReply(t, r))

	_, err := conn.Write([]byte{0x00, 0x01, 0x02})
	require.NoError(t, err)
	require.NoError(t, conn.CloseWrite())

	assert.Equal(t, "ERROR\n", readReply(t, r))
}

func TestReceivingFlagTracksStream(t *testing.T) {
	fx := startServer(t, func() bool { return true })

	conn, r := dial(t, fx.addr)
	assert.Equal(t, "READY\n", readReply(t, r))

	_, err := conn.Write(lengthHeader(100))
	require.NoError(t, err)
	_, err = conn.Write(make([]byte, 10))
	require.NoError(t, err)

	require.Eventually(t, fx.srv.Receiving,
		2*time.Second, 5*time.Millisecond, "mid-stream transfer not flagged")

	_, err = conn.Write(make([]byte, 90))
	require.NoError(t, err)
	assert.Equal(t, "OK\n", readReply(t, r))

	require.Eventually(t, func() bool { return !fx.srv.Receiving() },
		2*time.Second, 5*time.Millisecond, "flag not cleared after transfer")
}

func TestClientSend(t *testing.T) {
	fx := startServer(t, func() bool { return true })

	src := filepath.Join(t.TempDir(), "new.mp4")
	payload := make([]byte, 64*1024+17)
	_, err := rand.Read(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	var calls int
	err = transfer.Send(context.Background(), fx.addr, src, func(sent, total int64) {
		calls++
		assert.LessOrEqual(t, sent, total)
	})
	require.NoError(t, err)
	assert.Positive(t, calls)

	got, err := os.ReadFile(fx.dest)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
}

func TestClientSendBusy(t *testing.T) {
	fx := startServer(t, func() bool { return false })

	src := filepath.Join(t.TempDir(), "new.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	err := transfer.Send(context.Background(), fx.addr, src, nil)
	assert.ErrorIs(t, err, transfer.ErrBusy)
}
