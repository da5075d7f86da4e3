// Package server accepts TCP connections and drives each one through a
// session.Session against one shared lobby.Lobby. errgroup.WithContext
// runs the lobby, the accept loop, and the shutdown watcher together as
// one group whose first error cancels every sibling, with graceful
// shutdown draining in-flight sessions before returning.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/chessmatch/chessmatchd/internal/lobby"
	"github.com/chessmatch/chessmatchd/internal/session"
)

// Server owns the listener and the single lobby every accepted
// connection's Session shares.
type Server struct {
	addr          string
	lob           *lobby.Lobby
	sessionPolicy session.Policy
	log           *slog.Logger
	nextSessionID atomic.Uint64
}

// New constructs a Server. Call Start to begin accepting connections.
func New(addr string, lob *lobby.Lobby, sessionPolicy session.Policy, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{addr: addr, lob: lob, sessionPolicy: sessionPolicy, log: log}
}

// Start runs the lobby goroutine and the accept loop, blocking until ctx
// is cancelled or the listener fails. On return, every in-flight
// session has been given a chance to tear down its lobby-owned state
// (see session.Session.cleanup) before Start returns, matching the
// process exit-code contract: a clean shutdown via ctx cancellation
// returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.lob.Run(gctx)
		return nil
	})

	var sessionWG sync.WaitGroup

	g.Go(func() error {
		defer ln.Close()
		return s.acceptLoop(gctx, ln, &sessionWG)
	})

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	err = g.Wait()

	s.log.Info("server draining in-flight sessions")
	sessionWG.Wait()

	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, wg *sync.WaitGroup) error {
	s.log.Info("listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		id := lobby.SessionID(s.nextSessionID.Add(1))
		sess := session.New(id, conn, s.lob, s.sessionPolicy, s.log.With("session", id))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("session ended with error", "session", id, "err", err)
			}
		}()
	}
}
