package router

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gyeo009/lookback-Backend/internal/i18n"
)

// visitor stores a rate limiter for each visitor and the last time they were seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a middleware that limits the number of requests per visitor.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	r        rate.Limit
	b        int
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter middleware.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		done:     make(chan struct{}),
	}
	go rl.cleanupVisitors()
	return rl
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// getVisitor returns the rate limiter for the current visitor.
func (rl *RateLimiter) getVisitor(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[identifier]
	if !exists {
		limiter := rate.NewLimiter(rl.r, rl.b)
		rl.visitors[identifier] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors removes visitors idle for more than three minutes.
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for identifier, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, identifier)
			}
		}
		rl.mu.Unlock()
	}
}

// LimitByIP is a middleware that limits requests by IP address.
// This can be used as either a global limiter or a per-route limiter.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			slog.ErrorContext(r.Context(), "could not get ip from remote address", "err", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		limiter := rl.getVisitor(ip)
		if !limiter.Allow() {
			slog.WarnContext(r.Context(), "rate limit exceeded for ip", "ip", ip, "path", r.URL.Path, "limit", rl.r, "burst", rl.b)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"detail": i18n.Sprintf(r.Header.Get("Accept-Language"), i18n.RateLimited),
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
