// Rate limiting for control-plane endpoints. Disaster triggers mutate a
// lot of tiles and snapshot saves rewrite the whole city in SQLite, so
// both get a per-IP fixed window even behind admin auth.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter admits up to limit requests per client IP inside a fixed
// window. The window opens on a client's first request and expired
// entries are pruned inline, so an idle limiter holds no goroutine and
// no stale state.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*window
	limit     int
	span      time.Duration
	lastSweep time.Time
}

type window struct {
	used     int
	openedAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per span.
func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		span:    span,
	}
}

// Allow consumes one request slot for ip, opening a fresh window when
// the previous one has expired. False means the client is over its limit.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.sweep(now)

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.openedAt) >= rl.span {
		rl.clients[ip] = &window{used: 1, openedAt: now}
		return true
	}
	if w.used < rl.limit {
		w.used++
		return true
	}
	return false
}

// RetryAfter returns how many seconds until the window resets for this IP.
func (rl *RateLimiter) RetryAfter(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[ip]
	if !ok {
		return 0
	}
	left := rl.span - time.Since(w.openedAt)
	if left < 0 {
		return 0
	}
	return int(left.Seconds()) + 1
}

// sweep drops windows old enough that their next request reopens them
// anyway. Runs under the lock at most once per span, so the map cannot
// grow without bound across many distinct clients.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.span {
		return
	}
	rl.lastSweep = now
	for ip, w := range rl.clients {
		if now.Sub(w.openedAt) >= rl.span {
			delete(rl.clients, ip)
		}
	}
}

// clientIP extracts the requester's address, honoring the first entry of
// X-Forwarded-For when a proxy sits in front.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndexByte(ip, ':'); idx >= 0 {
		ip = ip[:idx]
	}
	return ip
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 when
// the client's window is exhausted.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
