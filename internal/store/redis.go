package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis is a Gateway backed by a Redis server.
//
// Keys (all under prefix):
//
//	user:<id>          JSON user
//	user:mail:<email>  user id, claimed with SETNX
//	messages           sorted set of JSON messages scored by timestamp
type Redis struct {
	client *redis.Client
	prefix string
}

// storedMessage carries a unique id so equal messages do not collapse in the sorted set.
type storedMessage struct {
	ID string `json:"id"`
	domain.ChatMessage
}

// storedUser keeps the credential hash, which domain.User hides from JSON.
type storedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Mail     string `json:"mail"`
	Password string `json:"password"`
}

// OpenRedis connects to addr and verifies the server answers.
func OpenRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "chat:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) userKey(id string) string { return r.prefix + "user:" + id }
func (r *Redis) mailKey(email string) string { return r.prefix + "user:mail:" + strings.ToLower(email) }
func (r *Redis) messagesKey() string { return r.prefix + "messages" }

func (r *Redis) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get user: %w", err)
	}

	var su storedUser
	if err := json.Unmarshal(data, &su); err != nil {
		return nil, fmt.Errorf("redis decode user: %w", err)
	}
	return &domain.User{ID: su.ID, Username: su.Username, Email: su.Mail, CredentialHash: su.Password}, nil
}

func (r *Redis) FindUserByCredentialKey(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.mailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get mail index: %w", err)
	}
	return r.FindUserByID(ctx, id)
}

func (r *Redis) InsertUser(ctx context.Context, user *domain.User) (bool, error) {
	claimed, err := r.client.SetNX(ctx, r.mailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim mail: %w", err)
	}
	if !claimed {
		return false, nil
	}

	data, err := json.Marshal(storedUser{
		ID:       user.ID,
		Username: user.Username,
		Mail:     strings.ToLower(user.Email),
		Password: user.CredentialHash,
	})
	if err != nil {
		r.client.Del(ctx, r.mailKey(user.Email))
		return false, fmt.Errorf("redis encode user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		r.client.Del(ctx, r.mailKey(user.Email))
		return false, fmt.Errorf("redis set user: %w", err)
	}
	return true, nil
}

func (r *Redis) InsertMessage(ctx context.Context, msg domain.ChatMessage) (bool, error) {
	data, err := json.Marshal(storedMessage{ID: uuid.New().String(), ChatMessage: msg})
	if err != nil {
		return false, fmt.Errorf("redis encode message: %w", err)
	}
	added, err := r.client.ZAdd(ctx, r.messagesKey(), redis.Z{
		Score:  float64(msg.Timestamp),
		Member: data,
	}).Result()
	if err != nil {
		return false, fmt.Errorf("redis add message: %w", err)
	}
	return added == 1, nil
}

func (r *Redis) FindRecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return []domain.ChatMessage{}, nil
	}
	members, err := r.client.ZRevRange(ctx, r.messagesKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range messages: %w", err)
	}

	msgs := make([]domain.ChatMessage, 0, len(members))
	for _, m := range members {
		var sm storedMessage
		if err := json.Unmarshal([]byte(m), &sm); err != nil {
			return nil, fmt.Errorf("redis decode message: %w", err)
		}
		msgs = append(msgs, sm.ChatMessage)
	}
	return msgs, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
