package clob

import "errors"

// Sentinel errors matching the wire-exposed error table. The HTTP boundary
// (cmd/clobd, via pkg/xerr) maps these to stable codes; internal code never
// constructs ad-hoc error strings for these conditions.
var (
	ErrInsufficientBalance = errors.New("clob: insufficient balance")
	ErrOrderNotFound       = errors.New("clob: order not found")
	ErrUnauthorized        = errors.New("clob: unauthorized")
	ErrInvalidParameter    = errors.New("clob: invalid parameter")
	ErrFillOrKillNotFilled = errors.New("clob: fill-or-kill order not filled")
	ErrBookFull            = errors.New("clob: order book full")
	ErrEventQueueFull      = errors.New("clob: event queue full")
	ErrEventQueueEmpty     = errors.New("clob: event queue empty")
	ErrMathOverflow        = errors.New("clob: math overflow")

	// errInvariantViolation marks bugs, not user-facing conditions: a
	// settle_maker call that finds insufficient maker-reserved collateral
	// means a reservation was not maintained somewhere upstream. Callers
	// should log and abort the transaction, never retry.
	errInvariantViolation = errors.New("clob: invariant violation")
)
