// ratelimit.go - Token-bucket rate limiter middleware by client IP.
//
// Provides a simple per-IP limiter to protect the file endpoints; designed
// to complement proxy-side limits.
package server

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client IP.
// Buckets idle for longer than maxAge are dropped on the next lookup.
type rateLimiter struct {
	limit  rate.Limit
	burst  int
	maxAge time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows rps requests per second per IP with the given burst.
// A burst below 1 is raised to 1 so the limiter never rejects everything.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		maxAge:   10 * time.Minute,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *rateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if v, ok := rl.visitors[ip]; ok {
		v.lastSeen = now
		return v.limiter
	}

	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.maxAge {
			delete(rl.visitors, k)
		}
	}

	lim := rate.NewLimiter(rl.limit, rl.burst)
	rl.visitors[ip] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// allow reports whether a request from ip may proceed now.
func (rl *rateLimiter) allow(ip string) bool {
	return rl.get(ip).AllowN(rl.now(), 1)
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// middleware returns an HTTP middleware that enforces rate limits
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
