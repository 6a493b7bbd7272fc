package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopherex.com/pkg/common"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/ratelimit"
	"gopherex.com/pkg/xerr"
)

// RateLimit rejects requests once the per-IP+route token bucket in store is
// exhausted. This is a blunt, ambient safety net; the resource-specific
// sentinel-golang flow rules in Sentinel below are what actually protects
// place_limit_order/cancel_order from a resting-order storm.
func RateLimit(store *ratelimit.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + ":" + route

		if !store.Allow(key) {
			// A rate-limit rejection is an expected, controlled outcome —
			// no stack trace, just a warn so load tests don't flood logs.
			logger.Warn(c.Request.Context(), "http rate limited",
				zap.String("request_id", common.RequestIDFromGin(c)),
				zap.String("ip", c.ClientIP()),
				zap.String("route", route),
			)
			common.Fail(c, http.StatusTooManyRequests, xerr.CodeInternal, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
