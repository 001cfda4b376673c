package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	idleLimiterTTL  = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages rate limiting per IP address
type IPRateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
// r: requests per second, b: burst size
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// GetLimiter returns the rate limiter for the given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()

	return v.limiter
}

// Allow checks if the request from the given IP is allowed
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.GetLimiter(ip).Allow()
}

// Len returns the number of tracked IPs
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RunCleanup drops limiters idle for longer than idleTTL until ctx is done
func (l *IPRateLimiter) RunCleanup(ctx context.Context, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle(idleTTL)
		}
	}
}

func (l *IPRateLimiter) evictIdle(idleTTL time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > idleTTL {
			delete(l.visitors, ip)
		}
	}
}

// getIP extracts the client IP from the request
func getIP(r *http.Request) string {
	// Check X-Forwarded-For header (for reverse proxies)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware creates a middleware that rate limits requests
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RateLimitFunc(limiter, next.ServeHTTP)
	}
}

// RateLimitFunc wraps a HandlerFunc with rate limiting
func RateLimitFunc(limiter *IPRateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)

		if !limiter.Allow(ip) {
			slog.Debug("rate limited", "ip", ip, "path", r.URL.Path)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Wrap is RateLimitFunc bound to l
func (l *IPRateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return RateLimitFunc(l, next)
}

// Limiters groups the limiters applied to each class of endpoint
type Limiters struct {
	// API guards read endpoints
	API *IPRateLimiter
	// WebSocket guards connection upgrades
	WebSocket *IPRateLimiter
	// Strict guards login and registration
	Strict *IPRateLimiter
}

// NewLimiters builds the limiter set. Burst is twice the per-second rate.
func NewLimiters(api, ws, strict rate.Limit) *Limiters {
	return &Limiters{
		API:       NewIPRateLimiter(api, burstFor(api)),
		WebSocket: NewIPRateLimiter(ws, burstFor(ws)),
		Strict:    NewIPRateLimiter(strict, burstFor(strict)+1),
	}
}

func burstFor(r rate.Limit) int {
	b := int(r * 2)
	if b < 1 {
		return 1
	}
	return b
}

// RunCleanup evicts idle limiters from every set until ctx is done
func (ls *Limiters) RunCleanup(ctx context.Context) {
	var wg sync.WaitGroup
	for _, l := range []*IPRateLimiter{ls.API, ls.WebSocket, ls.Strict} {
		wg.Add(1)
		go func(l *IPRateLimiter) {
			defer wg.Done()
			l.RunCleanup(ctx, cleanupInterval, idleLimiterTTL)
		}(l)
	}
	wg.Wait()
}
