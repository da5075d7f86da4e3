package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/chessmatch/chessmatchd/internal/wire"
)

func startLobby(t *testing.T, policy Policy) (*Lobby, context.Context) {
	t.Helper()
	l := New(policy, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go l.Run(ctx)
	return l, ctx
}

func TestCreateThenJoinPairs(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	const host, joiner SessionID = 1, 2

	passcode, notify, err := l.Create(ctx, host, CreateConfig{
		Color: wire.ColorWhite, Clock: wire.ClockNo, Variant: wire.VariantStandard, Visibility: wire.VisibilityPublic,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if passcode <= 0 {
		t.Fatalf("want positive passcode, got %d", passcode)
	}

	outcome, err := l.Join(ctx, joiner, passcode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if outcome.Color != wire.PlayBlack {
		t.Errorf("joiner should be Black opposite host White, got %v", outcome.Color)
	}
	if outcome.MessageID != 1 {
		t.Errorf("want starting message id 1, got %d", outcome.MessageID)
	}

	select {
	case n := <-notify:
		if n.MatchID != outcome.MatchID {
			t.Errorf("host/joiner match id mismatch: %d vs %d", n.MatchID, outcome.MatchID)
		}
		if n.Color != wire.PlayWhite {
			t.Errorf("host should be White, got %v", n.Color)
		}
	case <-time.After(time.Second):
		t.Fatal("host was never notified of pairing")
	}
}

func TestJoinRejectsOwnMatch(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	const host SessionID = 1
	passcode, _, err := l.Create(ctx, host, CreateConfig{Color: wire.ColorWhite, Visibility: wire.VisibilityPublic})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := l.Join(ctx, host, passcode); err != ErrMatchNotFound {
		t.Fatalf("want ErrMatchNotFound, got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	const host SessionID = 1
	if _, _, err := l.Create(ctx, host, CreateConfig{Visibility: wire.VisibilityPublic}); err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := l.Cancel(ctx, host)
	if err != nil || !removed {
		t.Fatalf("first cancel: removed=%v err=%v", removed, err)
	}

	removed, err = l.Cancel(ctx, host)
	if err != nil || removed {
		t.Fatalf("second cancel should be a no-op: removed=%v err=%v", removed, err)
	}
}

func TestVariantAllowList(t *testing.T) {
	l, ctx := startLobby(t, Policy{Variants: []wire.Variant{wire.VariantStandard}})

	const host SessionID = 1
	if _, _, err := l.Create(ctx, host, CreateConfig{Variant: wire.VariantTurnZero, Visibility: wire.VisibilityPublic}); err != ErrVariantNotAllowed {
		t.Fatalf("want ErrVariantNotAllowed, got %v", err)
	}

	snap, err := l.Snapshot(ctx, host)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Host.IsHost || len(snap.Public) != 0 {
		t.Fatalf("rejected create must not leave an open match behind: %+v", snap)
	}
}

func TestForfeitRemovesRunningMatchAndRecordsHistory(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	const host, joiner SessionID = 1, 2
	passcode, _, _ := l.Create(ctx, host, CreateConfig{Color: wire.ColorWhite, Clock: wire.ClockShort, Variant: wire.VariantStandard, Visibility: wire.VisibilityPublic})
	outcome, err := l.Join(ctx, joiner, passcode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	fo, err := l.Forfeit(ctx, joiner, outcome.MatchID)
	if err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	if !fo.WasParticipant {
		t.Fatal("want WasParticipant=true")
	}

	if _, err := l.StampAction(ctx, host, outcome.MatchID); err != ErrNotRunning {
		t.Fatalf("want ErrNotRunning after forfeit, got %v", err)
	}

	snap, err := l.Snapshot(ctx, host)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.History) != 1 || snap.History[0].Clock != wire.ClockShort {
		t.Fatalf("want one history entry with the match's clock, got %+v", snap.History)
	}
}

func TestPublicCapacity(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	for i := 0; i < matchListSlots; i++ {
		if _, _, err := l.Create(ctx, SessionID(i+1), CreateConfig{Visibility: wire.VisibilityPublic}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	if _, _, err := l.Create(ctx, SessionID(1000), CreateConfig{Visibility: wire.VisibilityPublic}); err != ErrPublicFull {
		t.Fatalf("want ErrPublicFull, got %v", err)
	}
}

func TestStampActionIsMonotonic(t *testing.T) {
	l, ctx := startLobby(t, Policy{})

	const host, joiner SessionID = 1, 2
	passcode, _, _ := l.Create(ctx, host, CreateConfig{Visibility: wire.VisibilityPublic})
	outcome, err := l.Join(ctx, joiner, passcode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	first, err := l.StampAction(ctx, host, outcome.MatchID)
	if err != nil {
		t.Fatalf("stamp 1: %v", err)
	}
	second, err := l.StampAction(ctx, joiner, outcome.MatchID)
	if err != nil {
		t.Fatalf("stamp 2: %v", err)
	}

	if second <= first {
		t.Fatalf("want strictly increasing message ids, got %d then %d", first, second)
	}
}
