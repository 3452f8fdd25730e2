package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("ip1"))
	assert.True(t, rl.Allow("ip1"))
	assert.False(t, rl.Allow("ip1"))

	// a different key has its own budget
	assert.True(t, rl.Allow("ip2"))

	// still blocked just inside the window
	now = now.Add(59 * time.Second)
	assert.False(t, rl.Allow("ip1"))

	// earliest hit ages out, one slot opens
	now = now.Add(2 * time.Second)
	assert.True(t, rl.Allow("ip1"))
	assert.False(t, rl.Allow("ip1"))
}

func TestRateLimiterCleanupDropsStaleKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("ip1"))
	now = now.Add(2 * time.Minute)
	rl.dropStaleKeys()

	rl.mu.Lock()
	_, exists := rl.hits["ip1"]
	rl.mu.Unlock()
	assert.False(t, exists)
}

func TestAuthRateLimitAppliesToAuthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	authLimiter := NewRateLimiter(5, 15*time.Minute)
	defer authLimiter.Stop()
	generalLimiter := NewRateLimiter(100, 15*time.Minute)
	defer generalLimiter.Stop()

	router := gin.New()
	router.Use(rateLimitMiddleware(authLimiter, generalLimiter, logger))
	router.POST("/auth/register", func(c *gin.Context) {
		c.Status(http.StatusBadRequest) // validity is irrelevant to the limiter
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.9:4711"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/auth/register"))
	}
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "/auth/register"))

	// general routes still fine, they draw from the other limiter
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health"))
}

func TestGeneralRateLimitIsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(bytes.NewBuffer(nil))

	authLimiter := NewRateLimiter(5, 15*time.Minute)
	defer authLimiter.Stop()
	generalLimiter := NewRateLimiter(2, 15*time.Minute)
	defer generalLimiter.Stop()

	router := gin.New()
	router.Use(rateLimitMiddleware(authLimiter, generalLimiter, logger))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.9:1"))
	assert.Equal(t, http.StatusOK, do("203.0.113.9:2"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.9:3"))

	// different client address is unaffected
	assert.Equal(t, http.StatusOK, do("198.51.100.7:1"))
}
