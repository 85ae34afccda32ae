package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

type visitors struct {
	mu   sync.Mutex
	byIP map[string]*visitor
}

func (v *visitors) get(ip string, rps int, burst int) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	vis, exists := v.byIP[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rps), burst)
		v.byIP[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	vis.lastSeen = time.Now()
	return vis.limiter
}

func (v *visitors) cleanup(ttl time.Duration, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		v.mu.Lock()
		for ip, vis := range v.byIP {
			if time.Since(vis.lastSeen) > ttl {
				delete(v.byIP, ip)
			}
		}
		v.mu.Unlock()
	}
}

// RateLimiterMiddleware is a per client IP token bucket. Each call gets its
// own set of buckets
func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}
	if config.Burst == 0 {
		config.Burst = config.RequestsPerSecond
	}

	v := &visitors{byIP: make(map[string]*visitor)}
	go v.cleanup(config.TTL, config.CleanupInterval)

	return func(c *gin.Context) {
		limiter := v.get(c.ClientIP(), config.RequestsPerSecond, config.Burst)

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many requests",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Next()
	}
}
