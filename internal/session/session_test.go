package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/chessmatch/chessmatchd/internal/lobby"
	"github.com/chessmatch/chessmatchd/internal/wire"
)

// pairedSessions wires two in-memory connections to two Session values
// sharing one Lobby, the way a real server.Server would for two
// accepted TCP connections. Returns the client-facing ends of the
// pipes, so a test can write/read raw frames exactly as a real client
// would.
func pairedSessions(t *testing.T, policy lobby.Policy) (ctx context.Context, hostConn, joinConn net.Conn) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lob := lobby.New(policy, nil)
	go lob.Run(ctx)

	hostServer, hostClient := net.Pipe()
	joinServer, joinClient := net.Pipe()

	hostSession := New(1, hostServer, lob, Policy{}, nil)
	joinSession := New(2, joinServer, lob, Policy{}, nil)

	go hostSession.Run(ctx)
	go joinSession.Run(ctx)

	return ctx, hostClient, joinClient
}

func greet(t *testing.T, conn net.Conn) {
	t.Helper()
	if err := wire.WriteMessage(conn, &wire.GreetClient{Version1: 11, Version2: 16}); err != nil {
		t.Fatalf("write greet: %v", err)
	}
	msg, err := wire.ReadMessage(conn)
	if err != nil {
		t.Fatalf("read greet reply: %v", err)
	}
	if _, ok := msg.(*wire.GreetServer); !ok {
		t.Fatalf("want GreetServer, got %T", msg)
	}
}

func TestFullMatchLifecycle(t *testing.T) {
	_, hostConn, joinConn := pairedSessions(t, lobby.Policy{})
	defer hostConn.Close()
	defer joinConn.Close()

	greet(t, hostConn)
	greet(t, joinConn)

	if err := wire.WriteMessage(hostConn, &wire.MatchCreateOrJoin{
		Color: wire.ColorWhite, Clock: wire.ClockNo, Variant: wire.VariantStandard, Visibility: wire.VisibilityPublic, Passcode: -1,
	}); err != nil {
		t.Fatalf("write create: %v", err)
	}

	createReply, err := wire.ReadMessage(hostConn)
	if err != nil {
		t.Fatalf("read create reply: %v", err)
	}
	result, ok := createReply.(*wire.MatchCreateOrJoinResult)
	if !ok || result.Result != 1 {
		t.Fatalf("want successful create result, got %#v", createReply)
	}
	passcode := result.Passcode

	if err := wire.WriteMessage(joinConn, &wire.MatchCreateOrJoin{Passcode: passcode}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	joinReply, err := wire.ReadMessage(joinConn)
	if err != nil {
		t.Fatalf("read join reply: %v", err)
	}
	if r, ok := joinReply.(*wire.MatchCreateOrJoinResult); !ok || r.Result != 1 {
		t.Fatalf("want successful join result, got %#v", joinReply)
	}

	joinStart, err := wire.ReadMessage(joinConn)
	if err != nil {
		t.Fatalf("read joiner match start: %v", err)
	}
	joinerStart, ok := joinStart.(*wire.MatchStart)
	if !ok {
		t.Fatalf("want MatchStart, got %T", joinStart)
	}

	hostStart, err := wire.ReadMessage(hostConn)
	if err != nil {
		t.Fatalf("read host match start: %v", err)
	}
	hostMatchStart, ok := hostStart.(*wire.MatchStart)
	if !ok {
		t.Fatalf("want MatchStart, got %T", hostStart)
	}

	if hostMatchStart.Color == joinerStart.Color {
		t.Fatalf("host and joiner must receive opposite colors, got %v twice", hostMatchStart.Color)
	}

	action := &wire.Action{ActionType: wire.ActionMove, Color: hostMatchStart.Color, SrcY: 1, SrcX: 4, DstY: 3, DstX: 4}
	if err := wire.WriteMessage(hostConn, action); err != nil {
		t.Fatalf("write action: %v", err)
	}

	relayed, err := wire.ReadMessage(joinConn)
	if err != nil {
		t.Fatalf("read relayed action: %v", err)
	}
	relayedAction, ok := relayed.(*wire.Action)
	if !ok {
		t.Fatalf("want Action, got %T", relayed)
	}
	if relayedAction.SrcY != 1 || relayedAction.SrcX != 4 || relayedAction.DstY != 3 || relayedAction.DstX != 4 {
		t.Fatalf("relay must preserve coordinate fields unchanged, got %+v", relayedAction)
	}
	if relayedAction.MessageID == 0 {
		t.Fatalf("relayed action must be stamped with a nonzero message id")
	}

	if err := wire.WriteMessage(joinConn, &wire.Forfeit{}); err != nil {
		t.Fatalf("write forfeit: %v", err)
	}

	opLeft, err := wire.ReadMessage(hostConn)
	if err != nil {
		t.Fatalf("read opponent left: %v", err)
	}
	if _, ok := opLeft.(*wire.OpponentLeft); !ok {
		t.Fatalf("want OpponentLeft, got %T", opLeft)
	}
}

func TestCancelThenSecondCancelIsNoop(t *testing.T) {
	_, hostConn, _ := pairedSessions(t, lobby.Policy{})
	defer hostConn.Close()

	greet(t, hostConn)

	if err := wire.WriteMessage(hostConn, &wire.MatchCreateOrJoin{Visibility: wire.VisibilityPublic, Passcode: -1}); err != nil {
		t.Fatalf("write create: %v", err)
	}
	if _, err := wire.ReadMessage(hostConn); err != nil {
		t.Fatalf("read create reply: %v", err)
	}

	if err := wire.WriteMessage(hostConn, &wire.MatchCancel{}); err != nil {
		t.Fatalf("write cancel: %v", err)
	}
	first, err := wire.ReadMessage(hostConn)
	if err != nil {
		t.Fatalf("read first cancel result: %v", err)
	}
	if r := first.(*wire.MatchCancelResult); r.Result != 1 {
		t.Fatalf("want result=1 on first cancel, got %d", r.Result)
	}

	if err := wire.WriteMessage(hostConn, &wire.MatchCancel{}); err != nil {
		t.Fatalf("write second cancel: %v", err)
	}
	second, err := wire.ReadMessage(hostConn)
	if err != nil {
		t.Fatalf("read second cancel result: %v", err)
	}
	if r := second.(*wire.MatchCancelResult); r.Result != 0 {
		t.Fatalf("want result=0 on second cancel, got %d", r.Result)
	}
}

func TestIllegalMessageClosesConnection(t *testing.T) {
	_, hostConn, _ := pairedSessions(t, lobby.Policy{})
	defer hostConn.Close()

	// MatchCreateOrJoin before a greet is illegal in AwaitGreet.
	if err := wire.WriteMessage(hostConn, &wire.MatchCreateOrJoin{Passcode: -1}); err != nil {
		t.Fatalf("write: %v", err)
	}

	hostConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := wire.ReadMessage(hostConn); err == nil {
		t.Fatal("want the connection to close instead of replying")
	}
}
