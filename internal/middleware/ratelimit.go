package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// RateLimiterOptions configures the per-client token bucket.
type RateLimiterOptions struct {
	Limit          rate.Limit
	Burst          int
	ExpiryDuration time.Duration
	SweepInterval  time.Duration
	// KeyFunc extracts the limiting key from a request. Defaults to the
	// remote IP, which chi's RealIP middleware has already resolved.
	KeyFunc func(*http.Request) string
}

// DefaultRateLimiterOptions returns conservative defaults for a chat endpoint.
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:          2,
		Burst:          5,
		ExpiryDuration: time.Hour,
		SweepInterval:  time.Minute,
		KeyFunc:        clientIP,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client.
type RateLimiter struct {
	mu      sync.Mutex
	options RateLimiterOptions
	clients map[string]*client
}

// NewRateLimiter creates a limiter and starts its sweeper, which stops when
// ctx is cancelled.
func NewRateLimiter(ctx context.Context, opts RateLimiterOptions) *RateLimiter {
	defaults := DefaultRateLimiterOptions()
	if opts.Limit <= 0 {
		opts.Limit = defaults.Limit
	}
	if opts.Burst <= 0 {
		opts.Burst = defaults.Burst
	}
	if opts.ExpiryDuration <= 0 {
		opts.ExpiryDuration = defaults.ExpiryDuration
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaults.SweepInterval
	}
	if opts.KeyFunc == nil {
		opts.KeyFunc = defaults.KeyFunc
	}

	rl := &RateLimiter{
		options: opts,
		clients: make(map[string]*client),
	}
	go rl.sweep(ctx)
	return rl
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.options.KeyFunc(r)
		if !rl.limiter(key).Allow() {
			log.Printf("[ratelimit] limit exceeded client=%s path=%s", key, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.options.Burst))
			utils.RespondError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.options.Limit, rl.options.Burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(rl.options.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now())
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.options.ExpiryDuration {
			delete(rl.clients, k)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
