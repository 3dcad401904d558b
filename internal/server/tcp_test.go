package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/cache"
	"carpool/internal/logger"
)

func startServer(t *testing.T, d *Dispatcher, opts ServerOptions) (string, func() error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(d, opts, nil, logger.NewNop())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case stopErr = <-errCh:
			case <-time.After(5 * time.Second):
				stopErr = fmt.Errorf("server did not stop")
			}
		})
		return stopErr
	}
	t.Cleanup(func() { _ = stop() })
	return ln.Addr().String(), stop
}

func roundTrip(t *testing.T, conn net.Conn, r *bufio.Reader, line string) string {
	t.Helper()
	_, err := fmt.Fprint(conn, line)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := r.ReadString('\n')
	require.NoError(t, err)
	return resp
}

func TestServer_RoundTrip(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, _ := startServer(t, d, ServerOptions{IdleTimeout: time.Minute})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	// set has no output, so the following get is the next line on the wire.
	_, err = fmt.Fprint(conn, "set greeting hi there\n")
	require.NoError(t, err)
	assert.Equal(t, "hi there\n", roundTrip(t, conn, r, "get greeting\n"))
	assert.Equal(t, "1\n", roundTrip(t, conn, r, "count\n"))
	assert.Equal(t, "16 bytes\n", roundTrip(t, conn, r, "size\n"))
	assert.Equal(t, "operation not defined\n", roundTrip(t, conn, r, "nope\n"))
}

func TestServer_SharesCacheAcrossConnections(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, _ := startServer(t, d, ServerOptions{IdleTimeout: time.Minute})

	first, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = fmt.Fprint(first, "set k v\n")
	require.NoError(t, err)
	// Closing after the write ends the session; wait for the command to land.
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return d.Stats().Entries == 1 }, 2*time.Second, 10*time.Millisecond)

	second, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, "v\n", roundTrip(t, second, bufio.NewReader(second), "get k\n"))
}

func TestServer_LastLineWithoutNewline(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, _ := startServer(t, d, ServerOptions{IdleTimeout: time.Minute})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprint(conn, "set a 1\ncount")
	require.NoError(t, err)
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	resp, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "1\n", resp)
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, stop := startServer(t, d, ServerOptions{})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "0\n", roundTrip(t, conn, bufio.NewReader(conn), "count\n"))

	require.NoError(t, stop())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = bufio.NewReader(conn).ReadString('\n')
	assert.Error(t, err)
}

func TestServer_ListenError(t *testing.T) {
	srv := NewServer(NewDispatcher(cache.New(cache.Config{}), nil, nil), ServerOptions{}, nil, nil)
	err := srv.ListenAndServe(context.Background(), "256.0.0.1:1")
	assert.Error(t, err)
}

func TestServer_LineTooLong(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, _ := startServer(t, d, ServerOptions{IdleTimeout: time.Minute, MaxLineBytes: 64})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	assert.Equal(t, "0\n", roundTrip(t, conn, r, "count\n"))
	assert.Equal(t, "line too long\n", roundTrip(t, conn, r, "set big "+strings.Repeat("x", 200)+"\n"))

	// The server hangs up after rejecting the line.
	_, err = r.ReadString('\n')
	assert.Error(t, err)
	assert.Equal(t, 0, d.Stats().Entries)
}

func TestServer_LongValueWithinLimit(t *testing.T) {
	d := NewDispatcher(cache.New(cache.Config{TTL: 60}), nil, nil)
	addr, _ := startServer(t, d, ServerOptions{IdleTimeout: time.Minute, MaxLineBytes: 1 << 20})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	r := bufio.NewReader(conn)

	value := strings.Repeat("v", 70*1024)
	_, err = fmt.Fprint(conn, "set big "+value+"\n")
	require.NoError(t, err)
	assert.Equal(t, "1\n", roundTrip(t, conn, r, "count\n"))
}
