package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"github.com/mmuslimabdulj/chat2k/internal/store"
)

// Engine validates, stamps, persists and fans out chat messages, and replays
// recent history to new connections.
type Engine struct {
	store    store.Gateway
	registry *Registry
	hub      *Hub
	now      func() time.Time
	logger   *slog.Logger
}

// NewEngine creates a fanout engine
func NewEngine(gw store.Gateway, registry *Registry, hub *Hub, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    gw,
		registry: registry,
		hub:      hub,
		now:      time.Now,
		logger:   logger,
	}
}

// Submit handles one inbound chat message from peer. The sender's name comes
// from the registry binding; payload.Name is ignored. On success the message
// is broadcast to every connected peer, sender included. Failures are reported
// to the sender only and returned for the caller's information.
func (e *Engine) Submit(ctx context.Context, peer Peer, payload domain.SubmitPayload) error {
	user, ok := e.registry.Lookup(peer.ID())
	if !ok {
		e.logger.Warn("message before identification", "conn", peer.ID())
		e.notify(peer, domain.Notice{Message: domain.NoticeUnauthenticated})
		return domain.NewError(domain.KindUnauthenticated, "submit", nil)
	}

	msg := domain.NewChatMessage(user.Username, payload.Message, e.now())
	e.logger.Debug("new message", "conn", peer.ID(), "user", user.Username, "user_id", user.ID)

	saved, err := e.store.InsertMessage(ctx, msg)
	if err == nil && !saved {
		err = errors.New("message was not stored")
	}
	if err != nil {
		e.logger.Error("failed to save message", "conn", peer.ID(), "user", user.Username, "error", err)
		e.notify(peer, domain.Notice{
			Message:   fmt.Sprintf(domain.NoticeSaveFailedFormat, msg.Body),
			From:      msg.From,
			Timestamp: msg.Timestamp,
		})
		return domain.NewError(domain.KindPersistenceFailure, "submit", err)
	}

	data, err := domain.EncodeEvent(domain.EventNewMessage, msg)
	if err != nil {
		return err
	}
	e.hub.Broadcast(data)
	return nil
}

// ReplayHistory sends up to limit recent messages to peer as one batch,
// oldest first. Nothing is sent when the store has no messages. A store
// failure is logged and the connection carries on without history.
func (e *Engine) ReplayHistory(ctx context.Context, peer Peer, limit int) error {
	msgs, err := e.store.FindRecentMessages(ctx, limit)
	if err != nil {
		e.logger.Error("failed to load history", "conn", peer.ID(), "error", err)
		return domain.NewError(domain.KindPersistenceFailure, "history", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	data, err := domain.EncodeEvent(domain.EventHistory, domain.OldestFirst(msgs))
	if err != nil {
		return err
	}
	peer.Send(data)
	return nil
}

// notify sends a "new message" notice to a single peer
func (e *Engine) notify(peer Peer, n domain.Notice) {
	data, err := domain.EncodeEvent(domain.EventNewMessage, n)
	if err != nil {
		e.logger.Error("encode notice", "conn", peer.ID(), "error", err)
		return
	}
	peer.Send(data)
}
