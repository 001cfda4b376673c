package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Session is a login issued to a user
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	LastUsed  time.Time
}

// SessionStore manages login tokens
type SessionStore struct {
	tokens  map[string]*Session // token -> session
	userIDs map[string]string   // userID -> token
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewSessionStore creates a new session store with the given token lifetime
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		tokens:  make(map[string]*Session),
		userIDs: make(map[string]string),
		ttl:     ttl,
	}
}

// GenerateToken issues a token for userID, revoking the user's previous one
func (s *SessionStore) GenerateToken(userID string) (string, error) {
	tokenBytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	if oldToken, exists := s.userIDs[userID]; exists {
		delete(s.tokens, oldToken)
	}

	now := time.Now()
	s.tokens[token] = &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		LastUsed:  now,
	}
	s.userIDs[userID] = token

	return token, nil
}

// ValidateToken checks if a token is valid and returns the session
func (s *SessionStore) ValidateToken(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.tokens[token]
	if !exists {
		return Session{}, false
	}

	if time.Since(session.CreatedAt) > s.ttl {
		s.removeLocked(token)
		return Session{}, false
	}

	session.LastUsed = time.Now()
	return *session, true
}

// RemoveToken removes a token from the store
func (s *SessionStore) RemoveToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(token)
}

func (s *SessionStore) removeLocked(token string) {
	if session, exists := s.tokens[token]; exists {
		delete(s.userIDs, session.UserID)
		delete(s.tokens, token)
	}
}

// RemoveByUserID removes a token by user ID
func (s *SessionStore) RemoveByUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, exists := s.userIDs[userID]; exists {
		delete(s.tokens, token)
		delete(s.userIDs, userID)
	}
}

// RunCleanup removes expired tokens every interval until ctx is done
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired tokens
func (s *SessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, session := range s.tokens {
		if now.Sub(session.CreatedAt) > s.ttl {
			delete(s.userIDs, session.UserID)
			delete(s.tokens, token)
		}
	}
}

// Count returns the number of active sessions
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
