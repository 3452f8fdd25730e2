package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimiter enforces a sliding-window request cap per client key.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	stopC  chan struct{}
	now    func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		stopC:  make(chan struct{}),
		now:    time.Now,
	}

	go rl.cleanupLoop()

	return rl
}

// Allow records a hit for key and reports whether it stays within the cap.
// Hits are counted regardless of what the request turns out to be.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	kept := rl.hits[key][:0]
	for _, hit := range rl.hits[key] {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= rl.max {
		rl.hits[key] = kept
		return false
	}

	rl.hits[key] = append(kept, now)
	return true
}

// cleanupLoop drops keys whose hits all aged out of the window.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleKeys()
		case <-rl.stopC:
			return
		}
	}
}

func (rl *RateLimiter) dropStaleKeys() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, hits := range rl.hits {
		stale := true
		for _, hit := range hits {
			if hit.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(rl.hits, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopC)
}

// rateLimitMiddleware applies the auth limiter to /auth routes and the
// general limiter to everything else, keyed by client IP.
func rateLimitMiddleware(authLimiter, generalLimiter *RateLimiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := generalLimiter
		if strings.HasPrefix(c.Request.URL.Path, "/auth") {
			limiter = authLimiter
		}

		key := c.ClientIP()
		if !limiter.Allow(key) {
			logger.Warnf("rate limit exceeded for %s on %s %s", key, c.Request.Method, c.Request.URL.Path)
			writeError(c, http.StatusTooManyRequests, "too many requests from this IP, please try again later")
			return
		}

		c.Next()
	}
}
