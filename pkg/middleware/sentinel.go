package middleware

import (
	"net/http"

	sentinels "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopherex.com/pkg/common"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/xerr"
)

// Sentinel guards resource (typically an HTTP route) with whatever
// flow/circuit-breaker rules were loaded into sentinel-golang at startup
// (see internal/clobd/app). A resting-order storm against
// place_limit_order is the HTTP analogue of the matching engine's own
// BookFull back-pressure: better to reject at the door than let its
// bounded containers do it order by order.
func Sentinel(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, blockErr := sentinels.Entry(resource, sentinels.WithTrafficType(base.Inbound))
		if blockErr != nil {
			logger.Warn(c.Request.Context(), "request blocked by sentinel",
				zap.String("request_id", common.RequestIDFromGin(c)),
				zap.String("resource", resource),
				zap.String("block_type", blockErr.BlockType().String()),
			)
			common.Fail(c, http.StatusTooManyRequests, xerr.CodeInternal, "service is busy, please try again later")
			c.Abort()
			return
		}
		defer entry.Exit()

		c.Next()

		// Only a server-side failure (5xx) should count against the
		// resource's circuit breaker; a rejected order (4xx — insufficient
		// balance, not found, ...) is an expected business outcome.
		if c.Writer.Status() >= http.StatusInternalServerError {
			sentinels.TraceError(entry, errStatus(c.Writer.Status()))
		}
	}
}

type errStatus int

func (e errStatus) Error() string { return http.StatusText(int(e)) }
