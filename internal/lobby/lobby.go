package lobby

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/chessmatch/chessmatchd/internal/chanutil"
	"github.com/chessmatch/chessmatchd/internal/wire"
)

const (
	matchListSlots    = 13
	publicVisibility  = wire.VisibilityPublic
	privateVisibility = wire.VisibilityPrivate
	whitePlay         = wire.PlayWhite
	blackPlay         = wire.PlayBlack
	historyCompleted  = wire.HistoryCompleted
)

// Policy carries the configured, server-wide rules Create and Join
// enforce. The zero value allows everything.
type Policy struct {
	Variants          []wire.Variant
	BanPublicMatch    bool
	BanPrivateMatch   bool
	MaxRunningMatches int
}

// Lobby is the process-wide registry of open matches, running matches,
// and finished-match history: a single goroutine (Run) owns every field
// below it; every other method on Lobby only ever sends a command and
// waits for its response.
type Lobby struct {
	commandCh chan command
	policy    Policy
	log       *slog.Logger

	openPublic           []*openMatch
	openPrivate          map[Passcode]*openMatch
	running              map[uint64]*runningMatch
	history              []HistoryEntry
	nextMatchID          uint64
	nextPasscode         int64
	hostingBySession     map[SessionID]Passcode
	participantBySession map[SessionID]uint64
}

// New constructs a Lobby. Call Run in its own goroutine before issuing
// any command.
func New(policy Policy, log *slog.Logger) *Lobby {
	if log == nil {
		log = slog.Default()
	}
	return &Lobby{
		commandCh:            make(chan command),
		policy:               policy,
		log:                  log,
		openPrivate:          make(map[Passcode]*openMatch),
		running:              make(map[uint64]*runningMatch),
		hostingBySession:     make(map[SessionID]Passcode),
		participantBySession: make(map[SessionID]uint64),
	}
}

// Run processes commands until ctx is cancelled. It is the lobby's only
// goroutine and the only code path that touches the fields above.
func (l *Lobby) Run(ctx context.Context) {
	l.log.Info("lobby started")
	defer l.log.Info("lobby stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.commandCh:
			cmd.process(l)
		}
	}
}

func (l *Lobby) send(ctx context.Context, cmd command) error {
	select {
	case l.commandCh <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create allocates a passcode, inserts an OpenMatch, and remembers the
// caller as its host.
func (l *Lobby) Create(ctx context.Context, session SessionID, cfg CreateConfig) (Passcode, <-chan HostNotify, error) {
	cmd := &createCmd{session: session, cfg: cfg, resp: make(chan createResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return 0, nil, err
	}
	select {
	case r := <-cmd.resp:
		return r.passcode, r.notify, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// Join pairs the caller with the OpenMatch identified by passcode.
func (l *Lobby) Join(ctx context.Context, session SessionID, passcode Passcode) (JoinOutcome, error) {
	cmd := &joinCmd{session: session, passcode: passcode, resp: make(chan joinResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return JoinOutcome{}, err
	}
	select {
	case r := <-cmd.resp:
		return r.outcome, r.err
	case <-ctx.Done():
		return JoinOutcome{}, ctx.Err()
	}
}

// Cancel removes the caller's OpenMatch, if any. It reports whether a
// match was actually removed, and is idempotent: a second call with no
// intervening Create simply reports false.
func (l *Lobby) Cancel(ctx context.Context, session SessionID) (bool, error) {
	cmd := &cancelCmd{session: session, resp: make(chan cancelResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return false, err
	}
	select {
	case r := <-cmd.resp:
		return r.removed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Forfeit tears down the caller's RunningMatch and records history. It
// is used for both an explicit C2SForfeit and an implicit
// disconnect-while-InMatch — the session layer decides which applies
// and always already holds its own relay endpoint to notify the peer.
func (l *Lobby) Forfeit(ctx context.Context, session SessionID, matchID uint64) (ForfeitOutcome, error) {
	cmd := &forfeitCmd{session: session, matchID: matchID, resp: make(chan forfeitResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return ForfeitOutcome{}, err
	}
	select {
	case r := <-cmd.resp:
		return r.outcome, r.err
	case <-ctx.Done():
		return ForfeitOutcome{}, ctx.Err()
	}
}

// StampAction atomically increments a running match's message counter
// and returns the new value, producing the globally ordered S2C
// messageId.
func (l *Lobby) StampAction(ctx context.Context, session SessionID, matchID uint64) (uint64, error) {
	cmd := &stampActionCmd{session: session, matchID: matchID, resp: make(chan stampActionResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return 0, err
	}
	select {
	case r := <-cmd.resp:
		return r.messageID, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Snapshot copies the data needed to build an S2CMatchList reply.
func (l *Lobby) Snapshot(ctx context.Context, session SessionID) (ListSnapshot, error) {
	cmd := &snapshotCmd{session: session, resp: make(chan snapshotResp, 1)}
	if err := l.send(ctx, cmd); err != nil {
		return ListSnapshot{}, err
	}
	select {
	case r := <-cmd.resp:
		return r.snapshot, nil
	case <-ctx.Done():
		return ListSnapshot{}, ctx.Err()
	}
}

// --- actor-owned helpers; called only from inside process() methods ---

func (l *Lobby) isBusy(session SessionID) bool {
	if _, hosting := l.hostingBySession[session]; hosting {
		return true
	}
	_, playing := l.participantBySession[session]
	return playing
}

func (l *Lobby) variantAllowed(v wire.Variant) bool {
	if len(l.policy.Variants) == 0 {
		return true
	}
	for _, allowed := range l.policy.Variants {
		if allowed == v {
			return true
		}
	}
	return false
}

func (l *Lobby) allocPasscode() Passcode {
	l.nextPasscode++
	return Passcode(l.nextPasscode)
}

// takeOpenByPasscode removes and returns the open match for passcode,
// searching both visibility buckets, or nil if none exists.
func (l *Lobby) takeOpenByPasscode(passcode Passcode) *openMatch {
	if om, ok := l.openPrivate[passcode]; ok {
		delete(l.openPrivate, passcode)
		return om
	}
	for i, om := range l.openPublic {
		if om.passcode == passcode {
			l.openPublic = append(l.openPublic[:i], l.openPublic[i+1:]...)
			return om
		}
	}
	return nil
}

func (l *Lobby) peekOpenByPasscode(passcode Passcode) *openMatch {
	if om, ok := l.openPrivate[passcode]; ok {
		return om
	}
	for _, om := range l.openPublic {
		if om.passcode == passcode {
			return om
		}
	}
	return nil
}

// restoreOpen re-inserts a match taken out speculatively by
// takeOpenByPasscode when a later validation step in the same command
// fails, keeping the remove-then-validate flow transactional.
func (l *Lobby) restoreOpen(om *openMatch) {
	if om.visibility == publicVisibility {
		l.openPublic = append(l.openPublic, om)
	} else {
		l.openPrivate[om.passcode] = om
	}
}

func (l *Lobby) makeRelayPair() (a, b RelayEndpoint) {
	return chanutil.MakeRelayPair[RelayFrame](RelayCapacity)
}

// pushHistory prepends the newest entry and truncates to the wire cap,
// giving Snapshot newest-first order directly.
func (l *Lobby) pushHistory(e HistoryEntry) {
	l.history = append([]HistoryEntry{e}, l.history...)
	if len(l.history) > matchListSlots {
		l.history = l.history[:matchListSlots]
	}
}

func (l *Lobby) now() time.Time {
	return time.Now()
}

func resolveColors(declared wire.Color) (host, joiner wire.PlayColor) {
	switch declared {
	case wire.ColorWhite:
		return whitePlay, blackPlay
	case wire.ColorBlack:
		return blackPlay, whitePlay
	default: // Random, or a malformed declaration defensively treated the same
		if rand.Intn(2) == 0 {
			return whitePlay, blackPlay
		}
		return blackPlay, whitePlay
	}
}
