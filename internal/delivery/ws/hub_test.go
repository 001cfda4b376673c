package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

// fakePeer records every frame it is sent
type fakePeer struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	reject bool
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(msg []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.frames = append(p.frames, msg)
	return true
}

func (p *fakePeer) setReject(v bool) {
	p.mu.Lock()
	p.reject = v
	p.mu.Unlock()
}

// events decodes every frame received so far
func (p *fakePeer) events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.Event, 0, len(p.frames))
	for _, f := range p.frames {
		var ev domain.Event
		if err := json.Unmarshal(f, &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}

// eventsOf returns the received events of one type
func (p *fakePeer) eventsOf(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, ev := range p.events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (p *fakePeer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	if hub.peers == nil {
		t.Error("Peers map not initialized")
	}
	if hub.broadcast == nil {
		t.Error("Broadcast channel not initialized")
	}
	if hub.register == nil {
		t.Error("Register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Unregister channel not initialized")
	}
}

func TestHub_Register(t *testing.T) {
	hub := startHub(t)
	peer := newFakePeer("conn-1")

	hub.Register(peer)

	// Register is handed to the loop synchronously, the map update follows
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.mu.RLock()
	_, exists := hub.peers[peer.ID()]
	hub.mu.RUnlock()
	if !exists {
		t.Error("Peer ID not found in hub peers map")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	peer := newFakePeer("conn-1")

	hub.Register(peer)
	hub.Unregister(peer)

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_BroadcastReachesEveryPeer(t *testing.T) {
	hub := startHub(t)
	a, b := newFakePeer("a"), newFakePeer("b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast([]byte(`{"type":"new message"}`))

	waitFor(t, func() bool { return a.count() == 1 && b.count() == 1 })
}

func TestHub_BroadcastKeepsOrder(t *testing.T) {
	hub := startHub(t)
	peer := newFakePeer("a")
	hub.Register(peer)

	for i := 0; i < 50; i++ {
		hub.Broadcast([]byte(fmt.Sprintf(`{"type":"new message","payload":%d}`, i)))
	}

	waitFor(t, func() bool { return peer.count() == 50 })
	for i, ev := range peer.events() {
		if string(ev.Payload) != fmt.Sprint(i) {
			t.Fatalf("Frame %d out of order: got payload %s", i, ev.Payload)
		}
	}
}

func TestHub_FullPeerDoesNotBlockOthers(t *testing.T) {
	hub := startHub(t)
	stuck, ok := newFakePeer("stuck"), newFakePeer("ok")
	stuck.setReject(true)
	hub.Register(stuck)
	hub.Register(ok)

	hub.Broadcast([]byte(`{"type":"new message"}`))
	hub.Broadcast([]byte(`{"type":"new message"}`))

	waitFor(t, func() bool { return ok.count() == 2 })
	if stuck.count() != 0 {
		t.Errorf("Expected rejecting peer to receive nothing, got %d", stuck.count())
	}
}

func TestHub_StopUnblocksCallers(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	hub.Stop()
	hub.Stop() // idempotent

	done := make(chan struct{})
	go func() {
		hub.Register(newFakePeer("late"))
		hub.Broadcast([]byte("x"))
		hub.Unregister(newFakePeer("late"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Calls after Stop should not block")
	}
}
