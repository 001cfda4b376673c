package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes
const MaxMessageSize = 4096

// MaxHistorySize bounds the in-memory message store
const MaxHistorySize = 200

// HistoryLimit is how many recent messages are replayed to a new connection
const HistoryLimit = 10

// ==== Session Constants ====

// SessionTTL is the default login token time-to-live
const SessionTTL = 24 * time.Hour

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket connections (req/sec)
	DefaultRateLimitWS = 5

	// DefaultRateLimitStrict is the stricter rate limit for login and registration
	DefaultRateLimitStrict = 2
)

// ==== Timing Constants ====

// PresenceInterval is the period of the per-connection "whoshere" announcement
const PresenceInterval = 3000 * time.Millisecond

// ==== Notices ====

const (
	// NoticeUnauthenticated is sent to a connection that chats before identifying
	NoticeUnauthenticated = "<em>You must log in before chatting. That's the rule</em>"

	// NoticeSaveFailedFormat wraps the message body when persistence fails
	NoticeSaveFailedFormat = "<em>There was an error saving your message (%s)</em>"
)
