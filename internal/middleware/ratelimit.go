package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joshua-takyi/businessly/internal/helpers"
	"github.com/joshua-takyi/businessly/internal/metrics"
	"github.com/joshua-takyi/businessly/internal/ratelimit"
)

// RateLimit caps requests per caller and route inside a fixed window. Callers
// are keyed by user id when signed in, by client IP otherwise. Limiter errors
// fail open.
func RateLimit(limiter *ratelimit.FixedWindowLimiter, limit int, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || !limiter.Enabled() || limit <= 0 {
			c.Next()
			return
		}

		caller := "ip:" + c.ClientIP()
		if claims, ok := CurrentUser(c); ok {
			caller = "user:" + claims.UserID
		}
		route := c.FullPath()
		key := "rl:" + c.Request.Method + ":" + route + ":" + caller

		decision, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			metrics.RecordRateLimited(route)
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, helpers.ErrorResponse("too many requests, slow down"))
			return
		}
		c.Next()
	}
}
