package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/pkg/model"
)

func startServer(t *testing.T, lk lookup.Lookuper, opts Options) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serveOn(t, ln, lk, log.NewNopLogger(), opts)
	return ln.Addr().String()
}

// serveOn runs a server on ln until the test ends and checks that it stops
// cleanly.
func serveOn(t *testing.T, ln net.Listener, lk lookup.Lookuper, logger log.Logger, opts Options) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(lk, logger, opts)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
}

// exchange sends payload and returns everything the server wrote before
// closing the connection.
func exchange(t *testing.T, addr, payload string) string {
	t.Helper()
	got, err := roundTrip(addr, payload)
	require.NoError(t, err)
	return got
}

// roundTrip is exchange without a *testing.T, for use off the test goroutine.
func roundTrip(addr, payload string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return "", err
	}
	if _, err := io.WriteString(conn, payload); err != nil {
		return "", err
	}
	got, err := io.ReadAll(conn)
	return string(got), err
}

// syncBuffer is a bytes.Buffer safe to write from the server and read from
// the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// flakyListener fails the first failures calls to Accept with a transient
// error, then behaves like the wrapped listener.
type flakyListener struct {
	net.Listener
	failures atomic.Int32
	attempts atomic.Int32
}

var errTransient = errors.New("accept: too many open files")

func (l *flakyListener) Accept() (net.Conn, error) {
	l.attempts.Add(1)
	if l.failures.Add(-1) >= 0 {
		return nil, errTransient
	}
	return l.Listener.Accept()
}

func static(output string) lookup.Lookuper {
	return lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		return []byte(output), nil
	})
}

const aliceListing = "Lalice\nn127.0.0.1:4000->127.0.0.1:5000\n"

func TestServer_UserID(t *testing.T) {
	addr := startServer(t, static(aliceListing), Options{})
	assert.Equal(t, "4000, 5000 : USERID : UNIX : alice\r\n", exchange(t, addr, "4000, 5000\r\n"))
}

func TestServer_BareLF(t *testing.T) {
	addr := startServer(t, static(aliceListing), Options{})
	assert.Equal(t, "4000,5000 : USERID : UNIX : alice\r\n", exchange(t, addr, "4000,5000\n"))
}

func TestServer_NoUser(t *testing.T) {
	addr := startServer(t, static("Lalice\nn127.0.0.1:4001->127.0.0.1:5000\n"), Options{})
	assert.Equal(t, "4000, 5000 : ERROR : NO-USER\r\n", exchange(t, addr, "4000, 5000\r\n"))
}

func TestServer_InvalidPort(t *testing.T) {
	var calls atomic.Int32
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		calls.Add(1)
		return nil, nil
	})
	addr := startServer(t, lk, Options{})

	got := exchange(t, addr, "not-a-port, 80\r\n")
	assert.Equal(t, "not-a-port, 80 : ERROR : INVALID-PORT\r\n", got)
	assert.Zero(t, calls.Load())
}

func TestServer_LookupFailureSendsNothing(t *testing.T) {
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		return nil, ident.NewLookupError("run lsof", errors.New("exec: \"lsof\": executable file not found in $PATH"))
	})
	addr := startServer(t, lk, Options{})
	assert.Empty(t, exchange(t, addr, "4000, 5000\r\n"))
}

func TestServer_NoQuery(t *testing.T) {
	var calls atomic.Int32
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		calls.Add(1)
		return nil, nil
	})
	addr := startServer(t, lk, Options{})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load())
}

func TestServer_LineTooLong(t *testing.T) {
	addr := startServer(t, static(aliceListing), Options{})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, strings.Repeat("1", ident.MaxLineLength+10)+"\r\n")
	require.NoError(t, err)

	// Unread input makes the close show up as a reset, so only check that no
	// reply arrived.
	got, _ := io.ReadAll(conn)
	assert.Empty(t, got)
}

func TestServer_SessionTimeout(t *testing.T) {
	addr := startServer(t, static(aliceListing), Options{SessionTimeout: 100 * time.Millisecond})

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	start := time.Now()
	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestServer_LookupGetsSocketPeer(t *testing.T) {
	var mu sync.Mutex
	var seen []model.RemoteEndpoint
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		mu.Lock()
		seen = append(seen, remote)
		mu.Unlock()
		return nil, nil
	})
	addr := startServer(t, lk, Options{})

	exchange(t, addr, "4000, 5000\r\n")
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), seen[0].IP.Unmap())
	assert.Equal(t, uint16(5000), seen[0].Port)
}

func TestServer_ConcurrentSessions(t *testing.T) {
	// Each remote port maps to its own owner, so a crossed reply shows up as
	// the wrong user.
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		time.Sleep(10 * time.Millisecond)
		local := remote.Port - 1000
		return fmt.Appendf(nil, "Luser%d\nn127.0.0.1:%d->127.0.0.1:%d\n", local, local, remote.Port), nil
	})
	addr := startServer(t, lk, Options{})

	const n = 32
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := 2000 + i
			query := fmt.Sprintf("%d, %d", local, local+1000)
			got, err := roundTrip(addr, query+"\r\n")
			if !assert.NoError(t, err, query) {
				return
			}
			assert.Equal(t, fmt.Sprintf("%s : USERID : UNIX : user%d\r\n", query, local), got)
		}()
	}
	wg.Wait()
}

func TestServer_ShutdownWaitsForSessions(t *testing.T) {
	started := make(chan struct{})
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		return []byte(aliceListing), nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(lk, nil, Options{}).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, "4000, 5000\r\n")
	require.NoError(t, err)

	<-started
	cancel()

	got, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "4000, 5000 : USERID : UNIX : alice\r\n", string(got))
	require.NoError(t, <-done)

	_, err = net.Dial("tcp", ln.Addr().String())
	assert.Error(t, err)
}

func TestServer_ListenAndServeBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := New(static(""), nil, Options{})
	err = srv.ListenAndServe(context.Background(), ln.Addr().String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}

func TestServer_ServeReturnsWhenListenerClosed(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- New(static(""), nil, Options{}).Serve(context.Background(), ln) }()

	time.Sleep(20 * time.Millisecond)
	ln.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestNew_RequiresLookuper(t *testing.T) {
	assert.Panics(t, func() { New(nil, nil, Options{}) })
}

func TestServer_AcceptErrorDoesNotStopLoop(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln := &flakyListener{Listener: inner}
	ln.failures.Store(2)

	var logs syncBuffer
	serveOn(t, ln, static(aliceListing), log.NewLogfmtLogger(&logs), Options{})

	got := exchange(t, inner.Addr().String(), "4000, 5000\r\n")
	assert.Equal(t, "4000, 5000 : USERID : UNIX : alice\r\n", got)
	assert.GreaterOrEqual(t, ln.attempts.Load(), int32(3))
	assert.Equal(t, 2, strings.Count(logs.String(), "Accept failed"))
}

func TestServer_LogsErrorKind(t *testing.T) {
	var logs syncBuffer
	lk := lookup.Func(func(ctx context.Context, remote model.RemoteEndpoint) ([]byte, error) {
		return nil, ident.NewLookupError("run lsof", errors.New("signal: killed"))
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serveOn(t, ln, lk, log.NewLogfmtLogger(&logs), Options{})
	addr := ln.Addr().String()

	assert.Empty(t, exchange(t, addr, "4000, 5000\r\n"))
	assert.Contains(t, logs.String(), `msg="Lookup failed" kind=lookup`)

	got := exchange(t, addr, "4000\r\n")
	assert.Equal(t, "4000 : ERROR : INVALID-PORT\r\n", got)
	assert.Contains(t, logs.String(), `msg="Invalid query" kind=invalid_port`)
}
