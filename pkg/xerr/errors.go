// Package xerr maps the matching engine's sentinel errors onto
// wire-exposed error codes and carries them to the HTTP boundary as a
// {code, message} payload. Internal engine code (internal/clob) never
// imports this package — it returns plain errors.New sentinels — the
// mapping happens once, at cmd/clobd's handler layer.
package xerr

import (
	"errors"
	"fmt"

	"gopherex.com/internal/clob"
)

// Wire codes, one per engine sentinel error, plus the generic fallback
// used for anything the engine didn't classify (should not happen on any
// request path reachable from cmd/clobd).
const (
	CodeOK                  = 0
	CodeInsufficientBalance = 1001
	CodeOrderNotFound       = 1002
	CodeUnauthorized        = 1003
	CodeBookFull            = 1004
	CodeEventQueueFull      = 1005
	CodeFillOrKillNotFilled = 1006
	CodeMathOverflow        = 1007
	CodeInvalidParameter    = 1008
	CodeInternal            = 1500
)

// CodeError is the shape returned to HTTP callers. It never embeds the
// underlying Go error text verbatim for internal-invariant failures — those
// are logged server-side (see pkg/logger) and returned as CodeInternal with
// a fixed message, so a caller can never learn internal state from the
// response body.
type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("xerr: code=%d msg=%s", e.Code, e.Msg)
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

// FromEngineError classifies an error returned by internal/clob into a wire
// CodeError. Errors not recognized as one of the named sentinels are
// treated as internal-invariant violations (§7): fatal, logged, and
// reported to the caller without detail.
func FromEngineError(err error) *CodeError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, clob.ErrInsufficientBalance):
		return &CodeError{CodeInsufficientBalance, "insufficient balance"}
	case errors.Is(err, clob.ErrOrderNotFound):
		return &CodeError{CodeOrderNotFound, "order not found"}
	case errors.Is(err, clob.ErrUnauthorized):
		return &CodeError{CodeUnauthorized, "unauthorized"}
	case errors.Is(err, clob.ErrBookFull):
		return &CodeError{CodeBookFull, "order book full"}
	case errors.Is(err, clob.ErrEventQueueFull):
		return &CodeError{CodeEventQueueFull, "event queue full"}
	case errors.Is(err, clob.ErrFillOrKillNotFilled):
		return &CodeError{CodeFillOrKillNotFilled, "fill-or-kill order not filled"}
	case errors.Is(err, clob.ErrMathOverflow):
		return &CodeError{CodeMathOverflow, "math overflow"}
	case errors.Is(err, clob.ErrInvalidParameter):
		return &CodeError{CodeInvalidParameter, "invalid parameter"}
	default:
		return &CodeError{CodeInternal, "internal error"}
	}
}

// IsUserError reports whether code is a user error (revert, no
// server-side stack log) rather than a capacity or internal-invariant
// failure.
func IsUserError(code int) bool {
	switch code {
	case CodeInsufficientBalance, CodeOrderNotFound, CodeUnauthorized,
		CodeInvalidParameter, CodeFillOrKillNotFilled:
		return true
	}
	return false
}
