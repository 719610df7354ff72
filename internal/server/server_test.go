package server

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnnaAnvok/chat/internal/client"
	"github.com/AnnaAnvok/chat/internal/protocol"
	"github.com/AnnaAnvok/chat/internal/services"
	"github.com/AnnaAnvok/chat/internal/storage"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()

	store := storage.NewMemory()
	registry := services.NewSessionRegistry(store, nil, zerolog.Nop())
	messages := services.NewMessageService(store, zerolog.Nop())
	srv := New("127.0.0.1:0", registry, messages, zerolog.Nop())

	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return srv, srv.Addr().String()
}

func dial(t *testing.T, addr string) *client.Client {
	t.Helper()
	c, err := client.Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func registerClient(t *testing.T, c *client.Client, username, password string) {
	t.Helper()
	reply, ok, err := c.Authorize(protocol.RouteRegister, username, password)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if !ok {
		t.Fatalf("register %s rejected: %s", username, reply)
	}
}

func TestTwoClientsExchangeMessages(t *testing.T) {
	_, addr := startServer(t)

	alice := dial(t, addr)
	bob := dial(t, addr)

	registerClient(t, alice, "alice", "secret1")
	registerClient(t, bob, "bob", "secret2")

	if err := alice.Send("hello"); err != nil {
		t.Fatalf("alice send: %v", err)
	}

	got, err := bob.Poll()
	if err != nil {
		t.Fatalf("bob poll: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("bob expected exactly one message, got %+v", got)
	}
	want := protocol.ChatMessage{ID: 1, User: "alice", Msg: "hello"}
	if got[0] != want {
		t.Fatalf("got %+v, want %+v", got[0], want)
	}

	if err := bob.Send("hi"); err != nil {
		t.Fatalf("bob send: %v", err)
	}

	// Alice drains her backlog first, advancing her cursor past id 1
	first, err := alice.Poll()
	if err != nil {
		t.Fatalf("alice first poll: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("alice expected her message and bob's, got %+v", first)
	}
	if first[1] != (protocol.ChatMessage{ID: 2, User: "bob", Msg: "hi"}) {
		t.Fatalf("got %+v", first[1])
	}

	// Nothing new afterwards
	rest, err := alice.Poll()
	if err != nil {
		t.Fatalf("alice second poll: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("alice expected no further messages, got %+v", rest)
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	_, addr := startServer(t)

	first := dial(t, addr)
	second := dial(t, addr)

	registerClient(t, first, "alice", "secret1")

	reply, ok, err := second.Authorize(protocol.RouteRegister, "alice", "other")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}
	if ok {
		t.Fatal("duplicate handle accepted")
	}
	if reply == "" {
		t.Fatal("failure carried no reason")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	_, addr := startServer(t)

	doomed := dial(t, addr)
	registerClient(t, doomed, "alice", "secret1")
	doomed.Close()

	// A dropped connection must not take the server with it
	survivor := dial(t, addr)
	reply, ok, err := survivor.Authorize(protocol.RouteLogin, "alice", "secret1")
	if err != nil {
		t.Fatalf("login after drop: %v", err)
	}
	if !ok {
		t.Fatalf("login rejected: %s", reply)
	}
	if err := survivor.Send("still alive"); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestStatsCountConnections(t *testing.T) {
	srv, addr := startServer(t)

	c := dial(t, addr)
	// Authorize completes a full round trip, so the session goroutine
	// is certainly running by now.
	registerClient(t, c, "alice", "secret1")

	stats := srv.Stats()
	if stats.ActiveConnections != 1 {
		t.Fatalf("expected 1 active connection, got %d", stats.ActiveConnections)
	}
	if stats.ServedConnections != 1 {
		t.Fatalf("expected 1 served connection, got %d", stats.ServedConnections)
	}

	c.Close()
	deadline := time.Now().Add(2 * time.Second)
	for srv.Stats().ActiveConnections != 0 {
		if time.Now().After(deadline) {
			t.Fatal("active connection count never dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
