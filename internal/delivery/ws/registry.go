package ws

import (
	"log/slog"
	"sync"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

// rosterSlot counts how many connections are bound to one user
type rosterSlot struct {
	entry domain.RosterEntry
	refs  int
}

// Registry is the authoritative record of who is online.
// It maps connection ids to identified users and derives the roster from
// those bindings. Every method is atomic with respect to the others.
type Registry struct {
	mu       sync.Mutex
	bindings map[string]domain.User // connection id -> user
	roster   map[string]*rosterSlot // user id -> entry
	logger   *slog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bindings: make(map[string]domain.User),
		roster:   make(map[string]*rosterSlot),
		logger:   logger,
	}
}

// Bind marks user as online under connID. Rebinding a connection replaces
// its previous user.
func (r *Registry) Bind(connID string, user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.bindings[connID]; ok {
		r.release(prev.ID)
	}
	r.bindings[connID] = user

	slot, ok := r.roster[user.ID]
	if !ok {
		slot = &rosterSlot{}
		r.roster[user.ID] = slot
	}
	slot.entry = user.Entry()
	slot.refs++
}

// Unbind removes the binding of connID. The user leaves the roster once no
// other connection is bound to them. Returns false if connID was never bound.
func (r *Registry) Unbind(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.bindings[connID]
	if !ok {
		r.logger.Warn("unbind of a connection that never identified", "conn", connID)
		return false
	}
	delete(r.bindings, connID)
	r.release(user.ID)
	return true
}

// release drops one reference to userID. Caller holds r.mu.
func (r *Registry) release(userID string) {
	slot, ok := r.roster[userID]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs <= 0 {
		delete(r.roster, userID)
	}
}

// Lookup returns the user bound to connID. Absence is not an error.
func (r *Registry) Lookup(connID string) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.bindings[connID]
	return user, ok
}

// Snapshot returns a copy of the roster that callers may keep or modify
func (r *Registry) Snapshot() domain.Roster {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(domain.Roster, len(r.roster))
	for id, slot := range r.roster {
		out[id] = slot.entry
	}
	return out
}

// OnlineCount returns the number of distinct online users
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.roster)
}
