package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	// RequestsPerMinute caps requests per client key. Zero or negative
	// falls back to 60.
	RequestsPerMinute int
	// KeyFunc derives the throttling key from the request. Defaults to
	// the client IP.
	KeyFunc func(c *gin.Context) string
}

// RateLimit rejects clients that exceed a sliding one-minute window
// with 429. Resegmentation requests are expensive enough that a single
// misbehaving client can starve the batch workers without this.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	w := newRequestWindow(cfg.RequestsPerMinute)
	go w.sweep()

	return func(c *gin.Context) {
		if !w.allow(cfg.KeyFunc(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// requestWindow tracks request timestamps per client key over the last
// minute.
type requestWindow struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limit  int
	maxAge time.Duration
}

func newRequestWindow(limit int) *requestWindow {
	return &requestWindow{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		maxAge: time.Minute,
	}
}

func (w *requestWindow) allow(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	recent := pruneOlder(w.seen[key], now.Add(-w.maxAge))
	if len(recent) >= w.limit {
		w.seen[key] = recent
		return false
	}
	w.seen[key] = append(recent, now)
	return true
}

// sweep drops idle keys so the map does not grow with every client the
// service has ever seen.
func (w *requestWindow) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-w.maxAge)
		w.mu.Lock()
		for key, stamps := range w.seen {
			recent := pruneOlder(stamps, cutoff)
			if len(recent) == 0 {
				delete(w.seen, key)
			} else {
				w.seen[key] = recent
			}
		}
		w.mu.Unlock()
	}
}

func pruneOlder(stamps []time.Time, cutoff time.Time) []time.Time {
	recent := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}
