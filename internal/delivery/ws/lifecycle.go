package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"github.com/mmuslimabdulj/chat2k/internal/store"
)

var errIdentityMismatch = errors.New("identity does not match the authenticated user")

// State is the lifecycle stage of one connection
type State int

const (
	StateConnected State = iota // open, not yet identified
	StateIdentified
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Options tunes the lifecycle controller
type Options struct {
	PresenceInterval time.Duration
	HistoryLimit     int
}

// Controller sets up and tears down connections: presence timer, history
// replay, registry binding.
type Controller struct {
	store    store.Gateway
	registry *Registry
	engine   *Engine
	hub      *Hub
	opts     Options
	logger   *slog.Logger
}

// NewController wires a controller from its collaborators
func NewController(gw store.Gateway, registry *Registry, engine *Engine, hub *Hub, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PresenceInterval <= 0 {
		opts.PresenceInterval = domain.PresenceInterval
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = domain.HistoryLimit
	}
	return &Controller{
		store:    gw,
		registry: registry,
		engine:   engine,
		hub:      hub,
		opts:     opts,
		logger:   logger,
	}
}

// OnlineCount returns the number of distinct identified users
func (c *Controller) OnlineCount() int {
	return c.registry.OnlineCount()
}

// ConnectionCount returns the number of open connections, identified or not
func (c *Controller) ConnectionCount() int {
	return c.hub.ClientCount()
}

// Session is the lifecycle of a single connection
type Session struct {
	c          *Controller
	peer       Peer
	authUserID string
	ctx        context.Context
	cancel     context.CancelFunc
	presence   *PresenceTimer

	mu    sync.Mutex
	state State
	user  domain.User
}

// Connect enters the Connected state: the peer joins the hub, its presence
// timer starts and history is requested without waiting for it.
// authUserID is the account the transport authenticated; the connection may
// only identify as that user.
func (c *Controller) Connect(parent context.Context, peer Peer, authUserID string) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		c:          c,
		peer:       peer,
		authUserID: authUserID,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateConnected,
	}

	c.hub.Register(peer)
	s.presence = StartPresence(c.opts.PresenceInterval, presenceTick(c.registry, peer, c.logger))
	go c.engine.ReplayHistory(ctx, peer, c.opts.HistoryLimit)

	c.logger.Debug("connection opened", "conn", peer.ID())
	return s
}

// Context is cancelled when the session disconnects
func (s *Session) Context() context.Context {
	return s.ctx
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the identified user, if any
func (s *Session) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.state == StateIdentified
}

// Identify resolves userID and binds it to this connection. An unknown id,
// an id other than the authenticated account or a store failure leaves the
// connection unidentified. A connection identifies at most once; later
// attempts are ignored.
func (s *Session) Identify(ctx context.Context, userID string) error {
	if st := s.State(); st != StateConnected {
		s.c.logger.Debug("identification ignored", "conn", s.peer.ID(), "state", st)
		return nil
	}
	if userID != s.authUserID {
		s.c.logger.Warn("identification as another user", "conn", s.peer.ID(),
			"user_id", userID, "auth_user_id", s.authUserID)
		return domain.NewError(domain.KindUnresolvedIdentity, "identify", errIdentityMismatch)
	}

	user, err := s.c.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.c.logger.Debug("identification with unknown user", "conn", s.peer.ID(), "user_id", userID)
			return domain.NewError(domain.KindUnresolvedIdentity, "identify", err)
		}
		s.c.logger.Error("failed to look up user", "conn", s.peer.ID(), "user_id", userID, "error", err)
		return domain.NewError(domain.KindPersistenceFailure, "identify", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		// disconnected (or identified) while the lookup was in flight
		return nil
	}
	s.c.registry.Bind(s.peer.ID(), *user)
	s.user = *user
	s.state = StateIdentified

	s.c.logger.Info("user identified", "conn", s.peer.ID(), "user", user.Username, "user_id", user.ID)
	return nil
}

// Submit passes an inbound chat message to the fanout engine
func (s *Session) Submit(ctx context.Context, payload domain.SubmitPayload) error {
	return s.c.engine.Submit(ctx, s.peer, payload)
}

// Disconnect enters the terminal state. The presence timer is stopped before
// it returns. Safe to call more than once.
func (s *Session) Disconnect() {
	s.mu.Lock()
	prev := s.state
	if prev == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	user := s.user
	if prev == StateIdentified {
		s.c.registry.Unbind(s.peer.ID())
	}
	s.mu.Unlock()

	s.presence.Stop()
	s.cancel()
	s.c.hub.Unregister(s.peer)

	if prev == StateIdentified {
		s.c.logger.Info("user disconnected", "conn", s.peer.ID(), "user", user.Username, "user_id", user.ID)
		return
	}
	s.c.logger.Warn("disconnect from a connection that never identified",
		"conn", s.peer.ID(), "kind", domain.KindAnomalousDisconnect)
}
