package middleware

import (
	"strconv"
	"sync"
	"time"

	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultLimiterIdleTTL = 10 * time.Minute

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long a client's bucket survives without requests.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client key and drops buckets that
// have been idle for longer than the TTL.
type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	cfg       RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultLimiterIdleTTL
	}
	return &limiterStore{visitors: make(map[string]*visitor), cfg: cfg, now: time.Now, lastSweep: time.Now()}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.cfg.IdleTTL {
		s.sweep(now)
	}
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep runs with mu held.
func (s *limiterStore) sweep(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) >= s.cfg.IdleTTL {
			delete(s.visitors, key)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// RateLimit throttles requests per client IP. A non-positive rate disables it.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(cfg)
	return rateLimit(store)
}

func rateLimit(store *limiterStore) gin.HandlerFunc {
	limit := strconv.FormatFloat(store.cfg.RequestsPerSecond, 'f', -1, 64)

	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		if !store.get(c.ClientIP()).Allow() {
			err := util.NewRateLimitedError(util.TOO_MANY_REQUESTS)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(util.HTTPStatus(err), util.FailedResponse(err, false))
			return
		}
		c.Next()
	}
}
