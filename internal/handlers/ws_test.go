package handlers

import (
	"testing"
	"time"
)

func recvOrFail(t *testing.T, c *wsClient, want string) {
	t.Helper()
	select {
	case msg := <-c.send:
		if string(msg) != want {
			t.Errorf("expected %q, got %q", want, msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestHub_BroadcastAndUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := &wsClient{hub: hub, send: make(chan []byte, 4)}
	b := &wsClient{hub: hub, send: make(chan []byte, 4)}
	// register is unbuffered, so both clients are in the set once these return.
	hub.register <- a
	hub.register <- b

	hub.Broadcast([]byte("tick-1"))
	recvOrFail(t, a, "tick-1")
	recvOrFail(t, b, "tick-1")

	hub.unregister <- a
	select {
	case _, ok := <-a.send:
		if ok {
			t.Error("expected closed send channel after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for send channel close")
	}

	// The remaining subscriber still gets the feed.
	hub.Broadcast([]byte("tick-2"))
	recvOrFail(t, b, "tick-2")
}

func TestHub_DropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := &wsClient{hub: hub, send: make(chan []byte)} // no buffer, never read
	hub.register <- slow

	hub.Broadcast([]byte("tick"))

	select {
	case _, ok := <-slow.send:
		if ok {
			t.Error("expected slow consumer's channel closed, got a message")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for slow consumer drop")
	}
}
