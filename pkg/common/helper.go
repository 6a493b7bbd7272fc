// Package common holds small HTTP-boundary helpers shared by cmd/clobd's
// handlers: the response envelope, success/failure writers, and engine-error
// mapping. Kept deliberately thin — business logic belongs in
// internal/clob and internal/clobd/handler, never here.
package common

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/xerr"
)

// Response is the uniform JSON envelope for every clobd endpoint.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes a 200 with data wrapped in the envelope, encoded with
// segmentio/encoding/json rather than gin's default encoding/json-backed
// c.JSON — the faster codec matters here because Success is on the hot path
// of every order-placement response.
func Success(c *gin.Context, data interface{}) {
	writeJSON(c, http.StatusOK, Response{Code: xerr.CodeOK, Message: "ok", Data: data})
}

func Fail(c *gin.Context, httpStatus, code int, message string) {
	writeJSON(c, httpStatus, Response{Code: code, Message: message, Data: nil})
}

// FailEngineError maps an internal/clob sentinel error to its wire code and
// an appropriate HTTP status. User errors (xerr.IsUserError) are logged at
// Warn with no stack; every other code — capacity, math overflow, and
// unclassified internal errors — is logged at Error with a stack trace.
func FailEngineError(c *gin.Context, err error) {
	ce := xerr.FromEngineError(err)
	status := http.StatusBadRequest
	switch {
	case ce.Code == xerr.CodeUnauthorized:
		status = http.StatusForbidden
	case ce.Code == xerr.CodeOrderNotFound:
		status = http.StatusNotFound
	case ce.Code == xerr.CodeBookFull, ce.Code == xerr.CodeEventQueueFull:
		status = http.StatusServiceUnavailable
	case ce.Code == xerr.CodeInternal:
		status = http.StatusInternalServerError
	}

	if xerr.IsUserError(ce.Code) {
		logger.Warn(c.Request.Context(), "engine rejected request",
			zap.String("request_id", RequestIDFromGin(c)),
			zap.Int("code", ce.Code),
			zap.Error(err),
		)
	} else {
		logger.Error(c.Request.Context(), "engine invariant violation",
			zap.String("request_id", RequestIDFromGin(c)),
			zap.Int("code", ce.Code),
			zap.Error(err),
			zap.ByteString("stack", debug.Stack()),
		)
	}
	Fail(c, status, ce.Code, ce.Msg)
}

func writeJSON(c *gin.Context, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
