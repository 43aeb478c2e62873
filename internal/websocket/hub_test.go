package websocket

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, c *Client) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil, false
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesOnlyThatRace(t *testing.T) {
	h := startHub(t)
	monaco := NewClient(RaceKey(2024, 8))
	canada := NewClient(RaceKey(2024, 9))
	h.Register(monaco)
	h.Register(canada)

	if err := h.BroadcastJSON(RaceKey(2024, 8), map[string]string{"comment": "what a pole lap"}); err != nil {
		t.Fatal(err)
	}

	msg, ok := receive(t, monaco)
	if !ok || string(msg) != `{"comment":"what a pole lap"}` {
		t.Errorf("got %q ok %v", msg, ok)
	}
	select {
	case m := <-canada.Send:
		t.Errorf("canada watcher received %q", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := NewClient(RaceKey(2024, 1))
	h.Register(c)
	waitFor(t, func() bool { return h.Watchers(c.Race) == 1 })

	h.Unregister(c)
	h.Unregister(c)
	if _, ok := receive(t, c); ok {
		t.Error("Send should be closed")
	}
	if n := h.Watchers(c.Race); n != 0 {
		t.Errorf("watchers = %d", n)
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := startHub(t)
	c := NewClient(RaceKey(2024, 2))
	h.Register(c)

	for i := 0; i < sendBuffer+1; i++ {
		h.Broadcast(c.Race, []byte("x"))
	}
	waitFor(t, func() bool { return h.Watchers(c.Race) == 0 })

	n := 0
	for range c.Send {
		n++
	}
	if n != sendBuffer {
		t.Errorf("buffered %d messages, want %d", n, sendBuffer)
	}
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() { h.Run(ctx); close(stopped) }()

	c := NewClient(RaceKey(2024, 3))
	h.Register(c)
	cancel()
	<-stopped

	if _, ok := receive(t, c); ok {
		t.Error("Send should be closed on shutdown")
	}
	if h.Register(NewClient("x")) {
		t.Error("Register after shutdown should report false")
	}
	h.Broadcast("x", []byte("ignored"))
	h.Unregister(c)
}
