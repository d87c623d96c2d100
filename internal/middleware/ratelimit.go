package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/fairshare/internal/clock"
)

// RealIP returns the client address, trusting X-Real-IP and then the first
// X-Forwarded-For hop set by a reverse proxy in front of the server.
func RealIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// window counts hits for one key until it resets.
type window struct {
	hits    int
	resetAt time.Time
}

// RateLimiter counts hits per key in fixed windows. It backs both the
// household sign-up limit and the per-member PIN lockout.
type RateLimiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	windows map[string]*window
}

func NewRateLimiter(clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		clock:   clk,
		windows: make(map[string]*window),
	}
}

// live returns the open window for key, or nil.
func (rl *RateLimiter) live(key string, now time.Time) *window {
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		return nil
	}
	return w
}

// Allow records a hit for key and reports whether it is within limit for
// the current window. A new window of length period opens on the first hit.
func (rl *RateLimiter) Allow(key string, limit int, period time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	w := rl.live(key, now)
	if w == nil {
		rl.windows[key] = &window{hits: 1, resetAt: now.Add(period)}
		return limit >= 1
	}
	w.hits++
	return w.hits <= limit
}

// Blocked reports whether key already used up limit in its open window,
// without recording a hit.
func (rl *RateLimiter) Blocked(key string, limit int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.live(key, rl.clock.Now())
	return w != nil && w.hits >= limit
}

// RetryAfter is the time until key's window closes, zero when none is open.
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	if w := rl.live(key, now); w != nil {
		return w.resetAt.Sub(now)
	}
	return 0
}

// Reset forgets key, e.g. after a correct PIN.
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

// Cleanup drops closed windows.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

func setRetryAfter(w http.ResponseWriter, d time.Duration) {
	if d > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
	}
}

// RateLimit returns middleware that limits requests per keyFunc(r).
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, period time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if !limiter.Allow(key, limit, period) {
				setRetryAfter(w, limiter.RetryAfter(key))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
