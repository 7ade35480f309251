package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// UseRedisClient wires the shared Redis client into the rate limiter.
// Without it the middleware acts as fail-open.
func UseRedisClient(client *redis.Client) {
	redisClient = client
}

// RedisRateLimit implements a fixed-window rate limiter using Redis
// INCR/EXPIRE. key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil {
			// fallback to allowing requests if Redis not configured
			c.Next()
			return
		}

		ident := c.ClientIP()
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident
		ctx := context.Background()

		val, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// on Redis error, fail-open (allow) but set header
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		if val == 1 {
			// first increment, set expiry
			redisClient.Expire(ctx, key, window)
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			tooManyRequests(c)
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()

		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.HTML(http.StatusTooManyRequests, "error.html", gin.H{
		"Status":  http.StatusTooManyRequests,
		"Message": "Too many attempts. Please try again shortly.",
	})
	c.Abort()
}
