package ws

import (
	"log/slog"
	"sync"
)

// Peer is the outbound side of one connection
type Peer interface {
	ID() string
	// Send queues msg without blocking and reports whether it was accepted
	Send(msg []byte) bool
}

// Hub maintains the set of connected peers and fans frames out to them.
// A single goroutine (Run) owns delivery, so frames reach every peer in the
// order they were broadcast.
type Hub struct {
	mu         sync.RWMutex
	peers      map[string]Peer
	broadcast  chan []byte
	register   chan Peer
	unregister chan Peer
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	logger     *slog.Logger
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		peers:      make(map[string]Peer),
		broadcast:  make(chan []byte, 256),
		register:   make(chan Peer),
		unregister: make(chan Peer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main event loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case peer := <-h.register:
			h.mu.Lock()
			h.peers[peer.ID()] = peer
			h.mu.Unlock()

		case peer := <-h.unregister:
			h.mu.Lock()
			delete(h.peers, peer.ID())
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for id, peer := range h.peers {
				if !peer.Send(message) {
					// no backpressure: a full or closing peer misses this frame
					h.logger.Debug("dropped frame for peer", "conn", id)
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			return
		}
	}
}

// Stop ends Run and waits for it to return
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

// Register adds a peer to the hub. Once it returns, later broadcasts reach the peer.
func (h *Hub) Register(p Peer) {
	select {
	case h.register <- p:
	case <-h.quit:
	}
}

// Unregister removes a peer from the hub
func (h *Hub) Unregister(p Peer) {
	select {
	case h.unregister <- p:
	case <-h.quit:
	}
}

// Broadcast queues a frame for every connected peer
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected peers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
