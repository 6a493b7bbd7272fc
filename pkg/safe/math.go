package safe

import (
	"errors"
	"math"
)

// ErrOverflow is returned by every checked arithmetic helper in this file
// instead of panicking or silently wrapping. Callers in the matching hot
// path propagate it as clob.ErrMathOverflow.
var ErrOverflow = errors.New("safe: integer overflow")

// AddI64 returns a+b, or ErrOverflow if the result does not fit in int64.
func AddI64(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// SubI64 returns a-b, or ErrOverflow if the result does not fit in int64.
func SubI64(a, b int64) (int64, error) {
	if b < 0 && a > math.MaxInt64+b {
		return 0, ErrOverflow
	}
	if b > 0 && a < math.MinInt64+b {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulI64 returns a*b, or ErrOverflow if the result does not fit in int64.
func MulI64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	c := a * b
	if c/b != a {
		return 0, ErrOverflow
	}
	return c, nil
}

// DivI64 returns a/b (truncating toward zero), or ErrOverflow on division
// by zero or on the single int64 case (MinInt64/-1) that overflows.
func DivI64(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrOverflow
	}
	if a == math.MinInt64 && b == -1 {
		return 0, ErrOverflow
	}
	return a / b, nil
}

// AddU64 returns a+b, or ErrOverflow if the result wraps past MaxUint64.
func AddU64(a, b uint64) (uint64, error) {
	c := a + b
	if c < a {
		return 0, ErrOverflow
	}
	return c, nil
}

// SubU64 returns a-b, or ErrOverflow if b > a.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulU64 returns a*b, or ErrOverflow if the result wraps past MaxUint64.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a {
		return 0, ErrOverflow
	}
	return c, nil
}
