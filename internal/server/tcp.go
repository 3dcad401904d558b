package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carpool/internal/logger"
	"carpool/internal/metrics"
)

// Server accepts TCP connections and feeds their lines to a Dispatcher.
//
// Ownership model:
// Serve owns the listener and every connection goroutine it starts, and does
// not return until all of them have exited.
type Server struct {
	dispatcher *Dispatcher
	opts       ServerOptions

	metrics *metrics.Metrics
	log     *logger.Logger

	wg    sync.WaitGroup
	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// ServerOptions tunes per-connection limits. Zero values disable them.
type ServerOptions struct {
	IdleTimeout  time.Duration
	MaxLineBytes int
}

// NewServer builds a server.
func NewServer(d *Dispatcher, opts ServerOptions, m *metrics.Metrics, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		dispatcher: d,
		opts:       opts,
		metrics:    m,
		log:        log,
		conns:      make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails.
// Cancellation is a clean shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info(ctx, "listening", zap.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() {
		// Unblocks Accept.
		_ = ln.Close()
	})
	defer stop()

	var serveErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				serveErr = fmt.Errorf("accept: %w", err)
			}
			break
		}

		s.track(conn, true)
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}

	_ = ln.Close()
	s.closeConns()
	s.wg.Wait()

	s.log.Info(ctx, "listener stopped")
	return serveErr
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.track(conn, false)
	defer conn.Close()

	ctx = logger.WithConnID(ctx, uuid.NewString())
	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug(ctx, "connection opened")

	r := bufio.NewReader(conn)
	for {
		if s.opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		line, err := readLine(r, s.opts.MaxLineBytes)
		if errors.Is(err, ErrLineTooLong) {
			// The rest of the line is unread, so the stream can not be resynced.
			log.Warn(ctx, "line too long", zap.Int("limit", s.opts.MaxLineBytes))
			_, _ = io.WriteString(conn, ErrLineTooLong.Error()+"\n")
			return
		}
		if line != "" {
			if resp := s.dispatcher.Handle(ctx, line); resp != "" {
				if _, werr := io.WriteString(conn, resp); werr != nil {
					log.Warn(ctx, "write failed", zap.Error(werr))
					return
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Debug(ctx, "connection closed")
			} else {
				log.Warn(ctx, "read failed", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) track(conn net.Conn, open bool) {
	s.mu.Lock()
	if open {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
	s.mu.Unlock()

	if s.metrics == nil {
		return
	}
	if open {
		s.metrics.ConnOpened()
	} else {
		s.metrics.ConnClosed()
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
