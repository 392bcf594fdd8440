package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"authgate/api/internal/apperrors"
	"authgate/api/internal/metrics"
	"authgate/api/internal/ratelimit"
)

// RateLimit allows limit requests per window for each client address under
// scope, keyed "<scope>_<ip>". A failing limiter backend lets the request
// through.
func RateLimit(limiter ratelimit.Limiter, scope string, limit int, window time.Duration, message string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), scope+"_"+c.ClientIP(), limit, window)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, apperrors.RateLimited(message))
			return
		}

		c.Next()
	}
}
