package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StartRateLimiter caps how many sessions one client may open per window.
type StartRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewStartRateLimiter(limit int, interval time.Duration) *StartRateLimiter {
	return &StartRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *StartRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}
	rl.history[key] = append(fresh, now)
	return true
}

// Middleware rejects with 429 once the client IP is over its limit.
// A non-positive limit disables throttling.
func (rl *StartRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}
		if !rl.Allow(c.ClientIP()) {
			log.Warn().
				Str("module", "adapters.http").
				Str("client", c.ClientIP()).
				Str("request_id", c.GetString("request_id")).
				Msg("session start rate limited")
			errorJSON(c, http.StatusTooManyRequests, "too many sessions started, slow down")
			return
		}
		c.Next()
	}
}
