package store

import (
	"context"
	"strings"
	"sync"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

// Memory is a process-local Gateway. Message history is bounded.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	byMail   map[string]string
	messages *RingBuffer
}

// NewMemory creates an empty in-memory store keeping at most historySize messages
func NewMemory(historySize int) *Memory {
	if historySize <= 0 {
		historySize = domain.MaxHistorySize
	}
	return &Memory{
		users:    make(map[string]domain.User),
		byMail:   make(map[string]string),
		messages: NewRingBuffer(historySize),
	}
}

func (m *Memory) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) FindUserByCredentialKey(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byMail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *Memory) InsertUser(ctx context.Context, user *domain.User) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := m.byMail[key]; taken {
		return false, nil
	}
	if _, taken := m.users[user.ID]; taken {
		return false, nil
	}
	m.users[user.ID] = *user
	m.byMail[key] = user.ID
	return true, nil
}

func (m *Memory) InsertMessage(ctx context.Context, msg domain.ChatMessage) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages.Add(msg)
	return true, nil
}

func (m *Memory) FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages.Newest(limit)
	if msgs == nil {
		return []domain.ChatMessage{}, nil
	}
	return msgs, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }
