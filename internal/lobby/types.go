// Package lobby owns the process-wide registry of open matches, running
// matches, and finished-match history, and brokers the relay channel
// pair two sessions use once paired. One goroutine owns every mutable
// field; every operation is a small request/response value sent over an
// unbuffered channel, so no field in this package is ever touched from
// more than one goroutine.
package lobby

import (
	"time"

	"github.com/chessmatch/chessmatchd/internal/chanutil"
	"github.com/chessmatch/chessmatchd/internal/wire"
)

// SessionID identifies a connection to the lobby. Sessions mint their
// own IDs (typically a per-process atomic counter owned by the server)
// and use them as an opaque handle; the lobby never dereferences one.
type SessionID uint64

// Passcode identifies an open match and doubles as its private join
// token. Assigned from a monotonic counter at Create time, simpler than
// rejection-sampling a bounded random range and just as unique.
type Passcode int64

// RelayFrame is the only thing two paired sessions ever send each
// other, over the channel pair this package vends at pairing time.
// Action carries a relayed move/signal frame with MessageID already
// stamped; OpponentLeft signals that the peer forfeited, disconnected,
// or was closed for cause and no further relay will occur.
type RelayFrame struct {
	Action       *wire.Action
	OpponentLeft bool
}

// RelayCapacity bounds the relay channel pair's queue depth per
// direction, per the concurrency model's "small queue, e.g. 16 frames".
const RelayCapacity = 16

// RelayEndpoint is this session's half of the relay channel pair vended
// at pairing time.
type RelayEndpoint = chanutil.Endpoint[RelayFrame]

// HostNotify is delivered exactly once to a hosting session's notify
// channel, the moment a joiner pairs with it. A hosting session selects
// on this channel (alongside its socket read) while Hosting; there is
// no other way for the lobby to wake a blocked host.
type HostNotify struct {
	MatchID   uint64
	Color     wire.PlayColor
	Clock     wire.Clock
	Variant   wire.Variant
	MessageID uint64
	Relay     RelayEndpoint
}

// openMatch is an unstarted, unpaired match sitting in the lobby.
type openMatch struct {
	passcode    Passcode
	hostSession SessionID
	color       wire.Color
	clock       wire.Clock
	variant     wire.Variant
	visibility  wire.Visibility
	notify      chan HostNotify
}

// runningMatch is a paired match actively relaying action frames.
type runningMatch struct {
	matchID       uint64
	white, black  SessionID
	nextMessageID uint64
	variant       wire.Variant
	clock         wire.Clock
	visibility    wire.Visibility
	startedAt     time.Time
}

// HistoryEntry is an in-memory record of a concluded match, surfaced in
// match lists. The lobby records one only when a running match ends, so
// Status is always HistoryCompleted; running matches are not listed.
type HistoryEntry struct {
	Status        wire.HistoryStatus
	Clock         wire.Clock
	Variant       wire.Variant
	Visibility    wire.Visibility
	SecondsPassed int64
}

// PublicMatchView is one row of the public-opens section of a match
// list snapshot.
type PublicMatchView struct {
	Color    wire.Color
	Clock    wire.Clock
	Variant  wire.Variant
	Passcode Passcode
}

// HostView describes the calling session's own open match, if any.
type HostView struct {
	IsHost     bool
	Color      wire.Color
	Clock      wire.Clock
	Variant    wire.Variant
	Visibility wire.Visibility
	Passcode   Passcode
}

// ListSnapshot is the data needed to build an S2CMatchList reply.
type ListSnapshot struct {
	Host    HostView
	Public  []PublicMatchView
	History []HistoryEntry // newest first, capped at 13
}

// CreateConfig is the host's declared configuration for a new match.
type CreateConfig struct {
	Color      wire.Color
	Clock      wire.Clock
	Variant    wire.Variant
	Visibility wire.Visibility
}

// JoinOutcome is returned to the joining session on a successful Join.
type JoinOutcome struct {
	MatchID   uint64
	Color     wire.PlayColor
	Clock     wire.Clock
	Variant   wire.Variant
	MessageID uint64
	Relay     RelayEndpoint

	// Result* mirror the host's declared configuration as needed to
	// build the S2CMatchCreateOrJoinResult reply delivered to the
	// joiner; the joiner never asserted these itself.
	ResultColor      wire.Color
	ResultClock      wire.Clock
	ResultVariant    wire.Variant
	ResultVisibility wire.Visibility
}

// ForfeitOutcome reports the bookkeeping side effects of leaving a
// running match, so the session layer can record what happened without
// re-deriving it.
type ForfeitOutcome struct {
	WasParticipant bool
	SecondsElapsed int64
}
