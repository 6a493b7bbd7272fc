package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"gopherex.com/pkg/common"
)

// ReqId assigns a request id (from the inbound header, or freshly minted)
// to gin's context, to the request's context.Context, and to the response's
// X-Request-Id header, so log lines written for this request can carry it.
func ReqId() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(common.HeaderRequestID)
		if rid == "" {
			rid = common.New()
		}
		c.Set(common.CtxKeyRequestID, rid)
		ctx := context.WithValue(c.Request.Context(), common.CtxKeyRequestID, rid)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(common.HeaderRequestID, rid)
		c.Next()
	}
}
