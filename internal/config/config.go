package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmuslimabdulj/chat2k/internal/domain"
	"golang.org/x/time/rate"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port string

	// Security
	AllowedOrigins []string
	SessionTTL     time.Duration

	// Rate Limiting
	RateLimitAPI    rate.Limit
	RateLimitWS     rate.Limit
	RateLimitStrict rate.Limit

	// Logging
	LogLevel string

	// WebSocket
	MaxMessageSize   int
	HistoryLimit     int
	PresenceInterval time.Duration

	// Storage
	StoreDriver    string
	DBPath         string
	RedisAddr      string
	RedisPrefix    string
	MaxHistorySize int
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:             "8000",
		AllowedOrigins:   []string{"http://localhost:8000", "http://localhost:3000"},
		SessionTTL:       domain.SessionTTL,
		RateLimitAPI:     domain.DefaultRateLimitAPI,
		RateLimitWS:      domain.DefaultRateLimitWS,
		RateLimitStrict:  domain.DefaultRateLimitStrict,
		LogLevel:         "info", // Options: debug, info, warn, error, silent
		MaxMessageSize:   domain.MaxMessageSize,
		HistoryLimit:     domain.HistoryLimit,
		PresenceInterval: domain.PresenceInterval,
		StoreDriver:      "sqlite",
		DBPath:           "chat.db",
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "chat:",
		MaxHistorySize:   domain.MaxHistorySize,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if hours, ok := positiveInt("SESSION_TTL_HOURS"); ok {
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}

	// Rate Limiting
	if val, ok := positiveInt("RATE_LIMIT_API"); ok {
		cfg.RateLimitAPI = rate.Limit(val)
	}
	if val, ok := positiveInt("RATE_LIMIT_WS"); ok {
		cfg.RateLimitWS = rate.Limit(val)
	}
	if val, ok := positiveInt("RATE_LIMIT_STRICT"); ok {
		cfg.RateLimitStrict = rate.Limit(val)
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// WebSocket
	if val, ok := positiveInt("MAX_MESSAGE_SIZE"); ok {
		cfg.MaxMessageSize = val
	}
	if val, ok := positiveInt("HISTORY_LIMIT"); ok {
		cfg.HistoryLimit = val
	}
	if ms, ok := positiveInt("PRESENCE_INTERVAL_MS"); ok {
		cfg.PresenceInterval = time.Duration(ms) * time.Millisecond
	}

	// Storage
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.StoreDriver = strings.ToLower(driver)
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		cfg.RedisPrefix = prefix
	}
	if val, ok := positiveInt("MAX_HISTORY_SIZE"); ok {
		cfg.MaxHistorySize = val
	}

	return cfg
}

// positiveInt reads a strictly positive integer from the environment
func positiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, false
	}
	return val, true
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
