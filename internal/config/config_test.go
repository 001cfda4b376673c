package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 3000*time.Millisecond, cfg.PresenceInterval)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("RATE_LIMIT_API", "7")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("PRESENCE_INTERVAL_MS", "500")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, rate.Limit(7), cfg.RateLimitAPI)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, 500*time.Millisecond, cfg.PresenceInterval)
	assert.Equal(t, "redis", cfg.StoreDriver)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFromEnv_IgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "-3")
	t.Setenv("MAX_MESSAGE_SIZE", "big")

	cfg := LoadFromEnv()

	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 4096, cfg.MaxMessageSize)
}
