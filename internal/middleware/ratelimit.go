package middleware

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Window durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

// RateLimit caps requests per client IP inside a fixed window, counted in
// Redis so limits hold across instances. On a Redis failure the request is
// allowed through; throttling never takes the API down.
func RateLimit(rdb *redis.Client, name string, limit int64, window time.Duration, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "ratelimit:" + name + ":" + c.ClientIP() // One counter per route class and client

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"limiter": name,
				"error":   err.Error(),
			}).Warn("Rate limit check failed, allowing request")
			c.Next()
			return
		}
		if count == 1 {
			// First hit starts the window
			_ = rdb.Expire(ctx, key, window).Err()
		}
		if count > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
