package middleware

import (
	"fmt"
	"time"

	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginRateLimitWindow = time.Minute

// LoginRateLimit caps password attempts per client IP within a fixed
// one-minute window. Redis failures let the request through.
func LoginRateLimit(rdb redis.Cmdable, max int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" || max <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().Truncate(loginRateLimitWindow).Unix()
		key := fmt.Sprintf("adminblog:login_limit:%s:%d", ip, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("login rate limit unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, loginRateLimitWindow+time.Second)
		}

		if count > int64(max) {
			log.Warn("login throttled", zap.String("ip", ip), zap.Int64("attempts", count))
			c.Header("Retry-After", "60")
			response.TooManyRequests(c, "Too many login attempts, slow down.")
			return
		}

		c.Next()
	}
}
