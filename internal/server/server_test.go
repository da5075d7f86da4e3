package server

import (
	"context"
	"testing"
	"time"

	"github.com/chessmatch/chessmatchd/internal/lobby"
	"github.com/chessmatch/chessmatchd/internal/session"
)

func TestServerShutsDownOnCancel(t *testing.T) {
	lob := lobby.New(lobby.Policy{}, nil)
	srv := New("127.0.0.1:0", lob, session.Policy{}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	// Start binds the listener synchronously inside Start before the
	// accept loop begins; give it a moment to come up before cancelling.
	time.Sleep(20 * time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("want clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestServerRejectsBadAddr(t *testing.T) {
	lob := lobby.New(lobby.Policy{}, nil)
	srv := New("not-an-address", lob, session.Policy{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("want an error for an invalid listen address")
	}
}
