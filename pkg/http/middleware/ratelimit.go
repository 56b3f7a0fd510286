package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter tracks one token bucket per caller key.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter returns nil when rps is not positive; a nil limiter allows everything.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// ProvideRateLimiter builds the limiter from the [http] section.
func ProvideRateLimiter(httpConf *http.Http) *RateLimiter {
	return NewRateLimiter(httpConf.RateLimit.RPS, httpConf.RateLimit.Burst)
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// Cleanup drops visitors idle for longer than ttl and returns how many were removed.
func (rl *RateLimiter) Cleanup(ttl time.Duration) int {
	if rl == nil {
		return 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > ttl {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle visitors every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	if rl == nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Cleanup(visitorTTL); n > 0 {
				log.Debugw("rate limiter visitors pruned", "count", n)
			}
		}
	}
}

// Handler limits by the X-authentik-username header, falling back to the client IP.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil {
			return c.Next()
		}

		key := c.Get("X-authentik-username")
		if key == "" {
			key = RealIP(c)
		}
		if !rl.Allow(key) {
			log.Warnw("request rate limited", "key", key, "path", c.Path())
			return http.WithRepCode(c, http.TooManyRequests)
		}
		return c.Next()
	}
}
