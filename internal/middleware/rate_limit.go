package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// limiterIdleTTL is how long a caller may stay silent before its limiter is
// dropped. A dropped limiter restarts with a full bucket.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles per caller: the actor id when authenticated, the
// client IP otherwise.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     time.Duration
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		every:    time.Minute / time.Duration(perMinute),
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	e, ok := r.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(r.every), r.burst)}
		r.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep drops idle callers, at most once per idleTTL. Caller holds r.mu.
func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.idleTTL {
		return
	}
	r.lastSweep = now

	for key, e := range r.limiters {
		if now.Sub(e.lastSeen) >= r.idleTTL {
			delete(r.limiters, key)
		}
	}
}

// Len reports how many callers are tracked.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ActorFrom(c).ID
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		if !r.limiter(key).Allow() {
			LoggerFrom(c).Warn("rate limit exceeded")
			c.Header("Retry-After", "2")
			httperr.Write(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down.")
			c.Abort()
			return
		}
		c.Next()
	}
}
