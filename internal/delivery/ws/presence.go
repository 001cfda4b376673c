package ws

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

// PresenceTimer fires tick every interval on its own goroutine until stopped.
type PresenceTimer struct {
	interval time.Duration
	tick     func()
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
	stopped  atomic.Bool
}

// StartPresence starts a repeating timer. The first tick happens one interval
// after the call.
func StartPresence(interval time.Duration, tick func()) *PresenceTimer {
	if interval <= 0 {
		interval = domain.PresenceInterval
	}
	p := &PresenceTimer{
		interval: interval,
		tick:     tick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *PresenceTimer) loop() {
	ticker := time.NewTicker(p.interval)
	defer func() {
		ticker.Stop()
		close(p.done)
	}()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			// a tick can win the select against a concurrent Stop
			if p.stopped.Load() {
				return
			}
			p.tick()
		}
	}
}

// Stop cancels the timer and waits until no tick is running.
// Safe to call more than once. Must not be called from tick itself.
func (p *PresenceTimer) Stop() {
	p.once.Do(func() {
		p.stopped.Store(true)
		close(p.stop)
	})
	<-p.done
}

// Stopped reports whether Stop has been called
func (p *PresenceTimer) Stopped() bool {
	return p.stopped.Load()
}

// presenceTick sends the current roster to a single peer
func presenceTick(registry *Registry, peer Peer, logger *slog.Logger) func() {
	return func() {
		data, err := domain.EncodeEvent(domain.EventWhosHere, domain.WhosHerePayload{
			Users: registry.Snapshot(),
		})
		if err != nil {
			logger.Error("encode presence snapshot", "conn", peer.ID(), "error", err)
			return
		}
		peer.Send(data)
	}
}
