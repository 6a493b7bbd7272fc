package clob

import "gopherex.com/pkg/safe"

// QuoteCost converts a fill (or reservation) at priceTicks for qtyLots into
// raw quote units: price_ticks * qty_lots * quote_tick_size / base_lot_size.
// The division truncates: the result is exact only when
// price_ticks * qty_lots * quote_tick_size is a multiple of base_lot_size.
// Nothing here or in place_limit_order rejects a pair for which it is not;
// such a pair gets the rounded-down value.
func QuoteCost(priceTicks, qtyLots, quoteTickSize, baseLotSize int64) (uint64, error) {
	step1, err := safe.MulI64(priceTicks, qtyLots)
	if err != nil {
		return 0, ErrMathOverflow
	}
	step2, err := safe.MulI64(step1, quoteTickSize)
	if err != nil {
		return 0, ErrMathOverflow
	}
	result, err := safe.DivI64(step2, baseLotSize)
	if err != nil {
		return 0, ErrMathOverflow
	}
	if result < 0 {
		return 0, ErrMathOverflow
	}
	return uint64(result), nil
}

// BaseRaw converts qtyLots into raw base units: qty_lots * base_lot_size.
func BaseRaw(qtyLots, baseLotSize int64) (uint64, error) {
	result, err := safe.MulI64(qtyLots, baseLotSize)
	if err != nil {
		return 0, ErrMathOverflow
	}
	if result < 0 {
		return 0, ErrMathOverflow
	}
	return uint64(result), nil
}
