package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/huddle/internal/logger"
	"github.com/MrSnakeDoc/huddle/internal/utils"
)

type RateLimitConfig struct {
	Burst             int           // bucket size, at least 1
	RefillPerIPPerMin int           // tokens added per minute, at least 1
	MaxEntries        int           // sweep early once this many clients are tracked (0 = no cap)
	SweepInterval     time.Duration // how often idle buckets are dropped (default 1m)
	IdleTTL           time.Duration // a bucket unused this long is dropped (default 15m)
	TrustProxy        bool          // resolve IP from proxy headers when true
	Logger            logger.Logger // optional, logs rejected clients at debug
	Now               func() time.Time
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	c.Burst = max(c.Burst, 1)
	c.RefillPerIPPerMin = max(c.RefillPerIPPerMin, 1)
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// tokenBuckets keeps one bucket per client key under a single lock. The
// critical section is a few float operations.
type tokenBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  float64
	perSecond float64
	maxKeys   int
	idleTTL   time.Duration
	sweepEach time.Duration
	lastSweep time.Time
}

func newTokenBuckets(cfg RateLimitConfig) *tokenBuckets {
	return &tokenBuckets{
		buckets:   make(map[string]*bucket),
		capacity:  float64(cfg.Burst),
		perSecond: float64(cfg.RefillPerIPPerMin) / 60.0,
		maxKeys:   cfg.MaxEntries,
		idleTTL:   cfg.IdleTTL,
		sweepEach: cfg.SweepInterval,
		lastSweep: cfg.Now(),
	}
}

// take spends one token for key. When none is left it reports how many
// whole seconds until one is.
func (tb *tokenBuckets) take(key string, now time.Time) (ok bool, remaining int, retryAfter int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if now.Sub(tb.lastSweep) >= tb.sweepEach || (tb.maxKeys > 0 && len(tb.buckets) >= tb.maxKeys) {
		tb.sweep(now)
	}

	b, found := tb.buckets[key]
	if !found {
		b = &bucket{tokens: tb.capacity, updated: now}
		tb.buckets[key] = b
	}

	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(tb.capacity, b.tokens+elapsed*tb.perSecond)
	}
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := int(math.Ceil((1 - b.tokens) / tb.perSecond))
	return false, 0, max(wait, 1)
}

func (tb *tokenBuckets) sweep(now time.Time) {
	for key, b := range tb.buckets {
		if now.Sub(b.updated) > tb.idleTTL {
			delete(tb.buckets, key)
		}
	}
	tb.lastSweep = now
}

func (tb *tokenBuckets) size() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.buckets)
}

// RateLimit applies a per-client token bucket. Rejected requests get 429
// with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	tb := newTokenBuckets(cfg)
	limit := strconv.Itoa(cfg.Burst)
	log := cfg.Logger.With(logger.String("middleware", "rate_limit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, cfg.TrustProxy)
			ok, remaining, retry := tb.take(ip, cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retry))
				log.Debug("client rate limited",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path),
					logger.Int("retry_after", retry))
				deny(w, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
