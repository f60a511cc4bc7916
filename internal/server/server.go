// Package server is the RFC 1413 responder: a TCP accept loop that answers
// one query per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/whoisit/internal/ident"
	"github.com/pranshuparmar/whoisit/internal/lookup"
	"github.com/pranshuparmar/whoisit/internal/pipeline"
)

// DefaultAddr listens on the ident port on every IPv4 and IPv6 address.
const DefaultAddr = ":113"

type Options struct {
	// SessionTimeout bounds one session: reading the query, the lookup and
	// writing the reply. Zero means no deadline.
	SessionTimeout time.Duration
}

type Server struct {
	lookuper lookup.Lookuper
	logger   log.Logger
	opts     Options
}

func New(lk lookup.Lookuper, logger log.Logger, opts Options) *Server {
	if lk == nil {
		panic("server: lookuper is required")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{
		lookuper: lk,
		logger:   log.With(logger, "component", "server"),
		opts:     opts,
	}
}

// ListenAndServe binds addr and serves until ctx is done. A bind failure is
// returned immediately.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and answers each in its own goroutine. It
// returns nil once ctx is done and every in-flight session has finished, or
// an error if ln is closed from elsewhere. Serve closes ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer ln.Close()

	// Sessions outlive shutdown of the accept loop; SessionTimeout bounds them.
	sessionCtx := context.WithoutCancel(ctx)

	var sessions errgroup.Group
	level.Info(s.logger).Log("msg", "Accepting ident queries", "addr", ln.Addr())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				sessions.Wait()
				return fmt.Errorf("accept: %w", err)
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			level.Warn(s.logger).Log("msg", "Accept failed", "err", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		sessions.Go(func() error {
			s.handle(sessionCtx, conn)
			return nil
		})
	}

	level.Info(s.logger).Log("msg", "Waiting for sessions to finish")
	sessions.Wait()
	level.Info(s.logger).Log("msg", "Server stopped")
	return nil
}

// handle runs one session. The connection is always closed on return.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := log.With(s.logger, "remote", conn.RemoteAddr())

	if s.opts.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SessionTimeout)
		defer cancel()
		if err := conn.SetDeadline(time.Now().Add(s.opts.SessionTimeout)); err != nil {
			level.Warn(logger).Log("msg", "Failed to set deadline", "err", err)
		}
	}

	peer, err := peerAddr(conn)
	if err != nil {
		level.Error(logger).Log("msg", "Unusable peer address", "err", err)
		return
	}

	query, err := ident.ReadQuery(conn)
	if err != nil {
		level.Debug(logger).Log("msg", "No query received", "kind", ident.KindOf(err), "err", err)
		return
	}
	logger = log.With(logger, "query", query)

	resp, err := pipeline.Identify(ctx, s.lookuper, query, peer)
	if err != nil {
		kind := ident.KindOf(err)
		switch kind {
		case ident.KindInvalidPort:
			level.Info(logger).Log("msg", "Invalid query", "kind", kind, "err", err)
		case ident.KindLookup:
			// The query was fine; the failure is ours and the client gets no reply.
			level.Error(logger).Log("msg", "Lookup failed", "kind", kind, "err", err)
			return
		default:
			level.Error(logger).Log("msg", "Query failed", "kind", kind, "err", err)
			return
		}
	}

	if err := ident.WriteResponse(conn, resp); err != nil {
		level.Warn(logger).Log("msg", "Failed to send response", "err", err)
		return
	}
	level.Info(logger).Log("msg", "Answered", "kind", resp.Kind, "user", resp.UserID, "error", resp.Error)
}

func peerAddr(conn net.Conn) (netip.Addr, error) {
	if tcp, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcp.AddrPort().Addr(), nil
	}
	ap, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parse peer address %q: %w", conn.RemoteAddr(), err)
	}
	return ap.Addr(), nil
}
