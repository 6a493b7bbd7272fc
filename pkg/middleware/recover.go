package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopherex.com/pkg/common"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/xerr"
)

// Recover turns a panic anywhere in the handler chain into a CodeInternal
// response instead of tearing down the process. A panic inside a Market
// call would otherwise surface as a dropped connection with the mutex still
// held; gin recovers into this handler on the same goroutine, so the
// deferred Market.mu.Unlock() has already run by the time we get here.
func Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "http panic",
					zap.String("request_id", common.RequestIDFromGin(c)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()),
				)
				common.Fail(c, http.StatusInternalServerError, xerr.CodeInternal, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
