// Package store holds the persistence backends for users and chat messages.
package store

import (
	"context"
	"errors"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
)

// ErrNotFound is returned when a user lookup has no match.
var ErrNotFound = errors.New("not found")

// Gateway is the contract the chat core consumes. Implementations must be safe
// for concurrent use and must report failures through the error value only.
type Gateway interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByCredentialKey(ctx context.Context, email string) (*domain.User, error)
	// InsertUser reports false when the email is already registered.
	InsertUser(ctx context.Context, user *domain.User) (bool, error)
	// InsertMessage reports false when the backend refused the write.
	InsertMessage(ctx context.Context, msg domain.ChatMessage) (bool, error)
	// FindRecentMessages returns at most limit messages, newest first.
	FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error)
	Ping(ctx context.Context) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options configures Open.
type Options struct {
	Driver         string
	DBPath         string
	RedisAddr      string
	RedisPrefix    string
	MaxHistorySize int
}

// Open builds the gateway named by opts.Driver and wraps it for coalesced reads.
func Open(ctx context.Context, opts Options) (Gateway, error) {
	var (
		gw  Gateway
		err error
	)
	switch opts.Driver {
	case DriverSQLite, "":
		gw, err = OpenSQLite(opts.DBPath)
	case DriverRedis:
		gw, err = OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case DriverMemory:
		gw = NewMemory(opts.MaxHistorySize)
	default:
		return nil, errors.New("unknown store driver: " + opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Coalesce(gw), nil
}
