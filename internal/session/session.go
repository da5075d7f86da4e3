// Package session drives one TCP connection through its state machine:
// AwaitGreet, Idle, Hosting, InMatch, Closed. One goroutine (Run) owns
// the connection end to end; a second, short-lived goroutine only feeds
// decoded frames into a channel so the main loop can select across it
// alongside the lobby notification and peer relay channels. A single
// loop is enough here because nothing on this connection ever
// originates a write except the loop itself, so there is no write
// serialization problem a second long-lived goroutine would need to
// solve.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/chessmatch/chessmatchd/internal/lobby"
	"github.com/chessmatch/chessmatchd/internal/wire"
)

type state int

const (
	stateAwaitGreet state = iota
	stateIdle
	stateHosting
	stateInMatch
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateAwaitGreet:
		return "await-greet"
	case stateIdle:
		return "idle"
	case stateHosting:
		return "hosting"
	case stateInMatch:
		return "in-match"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// ServerGreetVersion is echoed in every S2CGreet reply.
const ServerGreetVersion = 1

// Policy carries the server-wide rules a session enforces locally
// (as opposed to rules the Lobby enforces on its shared state).
type Policy struct {
	AllowResetPuzzle bool
	IdleTimeout      time.Duration
}

// Session owns one accepted connection. Every field below is touched
// only from the goroutine running Run.
type Session struct {
	id     lobby.SessionID
	conn   net.Conn
	lob    *lobby.Lobby
	log    *slog.Logger
	policy Policy

	state state

	notifyCh <-chan lobby.HostNotify
	relay    lobby.RelayEndpoint
	hasRelay bool
	matchID  uint64
	color    wire.PlayColor
}

func New(id lobby.SessionID, conn net.Conn, lob *lobby.Lobby, policy Policy, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{id: id, conn: conn, lob: lob, policy: policy, log: log, state: stateAwaitGreet}
}

type frameResult struct {
	msg wire.Message
	err error
}

func (s *Session) readLoop(ch chan<- frameResult, done <-chan struct{}) {
	for {
		msg, err := wire.ReadMessage(s.conn)
		select {
		case ch <- frameResult{msg: msg, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Run drives the session until the connection closes, a fatal error
// occurs, or ctx is cancelled. It always tears down any lobby-owned
// resource the session held (an OpenMatch as host, a RunningMatch as a
// participant) before returning, regardless of how the connection ends.
func (s *Session) Run(ctx context.Context) error {
	defer s.conn.Close()

	done := make(chan struct{})
	defer close(done)

	inboundCh := make(chan frameResult, 1)
	go s.readLoop(inboundCh, done)

	defer s.cleanup()

	var idleTimer *time.Timer
	var idleC <-chan time.Time
	if s.policy.IdleTimeout > 0 {
		idleTimer = time.NewTimer(s.policy.IdleTimeout)
		idleC = idleTimer.C
		defer idleTimer.Stop()
	}

	for {
		var relayRecv <-chan lobby.RelayFrame
		if s.hasRelay {
			relayRecv = s.relay.Recv
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-idleC:
			closeNow, err := s.handleTimeout(ctx)
			if err != nil {
				return err
			}
			if closeNow {
				return nil
			}
			idleTimer.Reset(s.policy.IdleTimeout)

		case fr := <-inboundCh:
			if fr.err != nil {
				if errors.Is(fr.err, io.EOF) {
					s.log.Debug("connection closed by peer", "session", s.id, "state", s.state)
				} else {
					s.log.Debug("framing error", "session", s.id, "state", s.state, "err", fr.err)
				}
				return nil
			}

			closeNow, err := s.handleInbound(ctx, fr.msg)
			if err != nil {
				return err
			}
			if closeNow {
				return nil
			}
			if idleTimer != nil {
				idleTimer.Reset(s.policy.IdleTimeout)
			}

		case n := <-s.notifyCh:
			if err := s.handlePaired(n); err != nil {
				return err
			}
			if idleTimer != nil {
				idleTimer.Reset(s.policy.IdleTimeout)
			}

		case rf := <-relayRecv:
			closeNow, err := s.handleRelay(rf)
			if err != nil {
				return err
			}
			if closeNow {
				return nil
			}
			if idleTimer != nil {
				idleTimer.Reset(s.policy.IdleTimeout)
			}
		}
	}
}

// cleanup runs the state-dependent teardown on every exit path: Cancel
// if we were Hosting, Forfeit (plus an OpponentLeft to the peer) if we
// were InMatch. A short-lived context bounds it so a shutting-down
// lobby can't hang connection teardown.
func (s *Session) cleanup() {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	switch s.state {
	case stateHosting:
		if _, err := s.lob.Cancel(cleanupCtx, s.id); err != nil {
			s.log.Debug("cleanup cancel failed", "session", s.id, "err", err)
		}

	case stateInMatch:
		fo, err := s.lob.Forfeit(cleanupCtx, s.id, s.matchID)
		if err != nil {
			s.log.Debug("cleanup forfeit failed", "session", s.id, "err", err)
			return
		}
		if fo.WasParticipant && s.hasRelay {
			select {
			case s.relay.Send <- lobby.RelayFrame{OpponentLeft: true}:
			case <-cleanupCtx.Done():
			}
			s.relay.Close()
		}
	}
}

func (s *Session) write(m wire.Message) error {
	return wire.WriteMessage(s.conn, m)
}

// handleInbound dispatches one decoded client frame against the
// current state. The bool return reports whether the connection should
// close now (illegal message or hostile action). An explicit forfeit
// keeps the connection open and returns the session to Idle.
func (s *Session) handleInbound(ctx context.Context, msg wire.Message) (bool, error) {
	switch s.state {
	case stateAwaitGreet:
		greet, ok := msg.(*wire.GreetClient)
		if !ok {
			return true, errIllegalMessage
		}
		s.log.Debug("greet", "session", s.id, "version1", greet.Version1, "version2", greet.Version2)
		if err := s.write(&wire.GreetServer{Version: ServerGreetVersion}); err != nil {
			return false, err
		}
		s.state = stateIdle
		return false, nil

	case stateIdle:
		switch m := msg.(type) {
		case *wire.MatchCreateOrJoin:
			return s.handleCreateOrJoin(ctx, m)
		case *wire.MatchCancel:
			// No open match to cancel, but a cancel with no
			// intervening create still gets a reply rather than being
			// treated as illegal: result=0, nothing to perturb.
			return false, s.handleCancel(ctx, m)
		case *wire.MatchListRequest:
			return false, s.handleMatchListRequest(ctx)
		default:
			return true, errIllegalMessage
		}

	case stateHosting:
		switch m := msg.(type) {
		case *wire.MatchCancel:
			return false, s.handleCancel(ctx, m)
		case *wire.MatchListRequest:
			return false, s.handleMatchListRequest(ctx)
		default:
			return true, errIllegalMessage
		}

	case stateInMatch:
		switch m := msg.(type) {
		case *wire.Action:
			return s.handleAction(ctx, m)
		case *wire.Forfeit:
			return false, s.handleForfeit(ctx)
		default:
			return true, errIllegalMessage
		}
	}

	return true, errIllegalMessage
}

func (s *Session) handleCreateOrJoin(ctx context.Context, m *wire.MatchCreateOrJoin) (bool, error) {
	if m.IsCreate() {
		cfg := lobby.CreateConfig{Color: m.Color, Clock: m.Clock, Variant: m.Variant, Visibility: m.Visibility}
		passcode, notify, err := s.lob.Create(ctx, s.id, cfg)
		if err != nil {
			return false, s.write(wire.FailedCreateOrJoinResult(reasonFor(err)))
		}

		s.notifyCh = notify
		s.state = stateHosting

		return false, s.write(&wire.MatchCreateOrJoinResult{
			Result: 1, Reason: 0,
			Color: cfg.Color, Clock: cfg.Clock, Variant: cfg.Variant, Visibility: cfg.Visibility,
			Passcode: int64(passcode),
		})
	}

	if m.Passcode <= 0 {
		return false, s.write(wire.FailedCreateOrJoinResult(reasonInvalidPasscode))
	}

	outcome, err := s.lob.Join(ctx, s.id, lobby.Passcode(m.Passcode))
	if err != nil {
		return false, s.write(wire.FailedCreateOrJoinResult(reasonFor(err)))
	}

	s.relay = outcome.Relay
	s.hasRelay = true
	s.matchID = outcome.MatchID
	s.color = outcome.Color
	s.state = stateInMatch

	if err := s.write(&wire.MatchCreateOrJoinResult{
		Result: 1, Reason: 0,
		Color: outcome.ResultColor, Clock: outcome.ResultClock, Variant: outcome.ResultVariant, Visibility: outcome.ResultVisibility,
		Passcode: m.Passcode,
	}); err != nil {
		return false, err
	}

	return false, s.write(&wire.MatchStart{
		Clock: outcome.ResultClock, Variant: outcome.ResultVariant,
		MatchID: outcome.MatchID, Color: outcome.Color, MessageID: outcome.MessageID,
	})
}

func (s *Session) handleCancel(ctx context.Context, _ *wire.MatchCancel) error {
	removed, err := s.lob.Cancel(ctx, s.id)
	if err != nil {
		return err
	}

	if !removed {
		// The only way a Hosting session's own OpenMatch can vanish out
		// from under it is a concurrent Join that already paired it —
		// the HostNotify for that pairing may already be sitting in the
		// buffered channel. Drain it so we don't strand the session
		// Hosting a match that no longer exists.
		select {
		case n := <-s.notifyCh:
			return s.handlePaired(n)
		default:
		}
	}

	result := int64(0)
	if removed {
		result = 1
		s.notifyCh = nil
		s.state = stateIdle
	}
	return s.write(&wire.MatchCancelResult{Result: result})
}

func (s *Session) handleMatchListRequest(ctx context.Context) error {
	snap, err := s.lob.Snapshot(ctx, s.id)
	if err != nil {
		return err
	}
	return s.write(buildMatchList(snap))
}

// handleAction relays one action frame after stamping it with a fresh
// messageId, unless it is a forbidden ResetPuzzle, in which case the
// connection is closed as hostile.
func (s *Session) handleAction(ctx context.Context, m *wire.Action) (bool, error) {
	if m.ActionType == wire.ActionResetPuzzle && !s.policy.AllowResetPuzzle {
		s.log.Warn("hostile action: reset puzzle forbidden by policy", "session", s.id)
		return true, errHostileAction
	}

	id, err := s.lob.StampAction(ctx, s.id, s.matchID)
	if err != nil {
		// The running match is already gone (peer forfeited/disconnected
		// concurrently); nothing left to relay to.
		return true, nil
	}
	m.MessageID = id

	select {
	case s.relay.Send <- lobby.RelayFrame{Action: m}:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Session) handleForfeit(ctx context.Context) error {
	fo, err := s.lob.Forfeit(ctx, s.id, s.matchID)
	if err != nil {
		return nil //nolint:nilerr // match already gone; nothing more to do
	}
	if fo.WasParticipant && s.hasRelay {
		select {
		case s.relay.Send <- lobby.RelayFrame{OpponentLeft: true}:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.relay.Close()
	}
	s.hasRelay = false
	s.state = stateIdle
	return nil
}

// handlePaired transitions a Hosting session to InMatch on the
// HostNotify delivered at pairing time.
func (s *Session) handlePaired(n lobby.HostNotify) error {
	s.relay = n.Relay
	s.hasRelay = true
	s.matchID = n.MatchID
	s.color = n.Color
	s.notifyCh = nil
	s.state = stateInMatch

	return s.write(&wire.MatchStart{
		Clock: n.Clock, Variant: n.Variant, MatchID: n.MatchID, Color: n.Color, MessageID: n.MessageID,
	})
}

// handleRelay delivers a frame the peer sent over the relay channel.
func (s *Session) handleRelay(rf lobby.RelayFrame) (bool, error) {
	if rf.OpponentLeft {
		s.relay.Close()
		s.hasRelay = false
		s.state = stateIdle
		return false, s.write(&wire.OpponentLeft{})
	}
	if rf.Action != nil {
		return false, s.write(rf.Action)
	}
	return false, nil
}

// handleTimeout applies the configured idle timeout. While InMatch, a
// silent session is presumed stuck and the server announces an
// opponent-timeout Header action to the peer before ending the match;
// in every other state, timing out simply closes the connection.
func (s *Session) handleTimeout(ctx context.Context) (bool, error) {
	if s.state != stateInMatch {
		s.log.Debug("idle timeout", "session", s.id, "state", s.state)
		return true, nil
	}

	id, err := s.lob.StampAction(ctx, s.id, s.matchID)
	if err == nil {
		header := &wire.Action{ActionType: wire.ActionHeader, Color: s.color, MessageID: id}
		select {
		case s.relay.Send <- lobby.RelayFrame{Action: header}:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	return true, s.handleForfeit(ctx)
}

const (
	reasonUnspecified              int64 = 0
	reasonAlreadyHostingOrPlaying  int64 = 1
	reasonVariantNotAllowed        int64 = 2
	reasonPublicFull               int64 = 3
	reasonVisibilityBanned         int64 = 4
	reasonMatchNotFound            int64 = 5
	reasonCapacity                 int64 = 6
	reasonInvalidPasscode          int64 = 7
)

func reasonFor(err error) int64 {
	switch {
	case errors.Is(err, lobby.ErrAlreadyHostingOrPlaying):
		return reasonAlreadyHostingOrPlaying
	case errors.Is(err, lobby.ErrVariantNotAllowed):
		return reasonVariantNotAllowed
	case errors.Is(err, lobby.ErrPublicFull):
		return reasonPublicFull
	case errors.Is(err, lobby.ErrVisibilityBanned):
		return reasonVisibilityBanned
	case errors.Is(err, lobby.ErrMatchNotFound):
		return reasonMatchNotFound
	case errors.Is(err, lobby.ErrCapacity):
		return reasonCapacity
	default:
		return reasonUnspecified
	}
}

func buildMatchList(snap lobby.ListSnapshot) *wire.MatchList {
	ml := &wire.MatchList{}

	if snap.Host.IsHost {
		ml.IsHost = 1
		ml.HostColor = snap.Host.Color
		ml.HostClock = snap.Host.Clock
		ml.HostVariant = snap.Host.Variant
		ml.HostVisibility = snap.Host.Visibility
		ml.HostPasscode = int64(snap.Host.Passcode)
	}

	for _, p := range snap.Public {
		ml.PublicMatches = append(ml.PublicMatches, wire.PublicMatchEntry{
			Color: p.Color, Clock: p.Clock, Variant: p.Variant, Passcode: int64(p.Passcode),
		})
	}

	for _, h := range snap.History {
		ml.HistoryMatches = append(ml.HistoryMatches, wire.HistoryMatchEntry{
			Status: h.Status, Clock: h.Clock, Variant: h.Variant, Visibility: h.Visibility, SecondsPassed: h.SecondsPassed,
		})
	}

	return ml
}

