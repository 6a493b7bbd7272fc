package clob

import "testing"

func TestQuoteCost_Basic(t *testing.T) {
	got, err := QuoteCost(100, 5, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestQuoteCost_TruncatesExactly(t *testing.T) {
	// priceTicks*qtyLots*quoteTickSize (80) is a multiple of baseLotSize (2)
	// here, so the truncating division loses nothing.
	got, err := QuoteCost(10, 4, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
}

func TestQuoteCost_Overflow(t *testing.T) {
	_, err := QuoteCost(1<<40, 1<<40, 1<<40, 1)
	if err != ErrMathOverflow {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
}

func TestQuoteCost_NegativeResultRejected(t *testing.T) {
	_, err := QuoteCost(10, 10, 10, -1)
	if err != ErrMathOverflow {
		t.Fatalf("expected ErrMathOverflow for negative divisor, got %v", err)
	}
}

func TestBaseRaw_Basic(t *testing.T) {
	got, err := BaseRaw(7, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7000 {
		t.Fatalf("expected 7000, got %d", got)
	}
}

func TestBaseRaw_Overflow(t *testing.T) {
	_, err := BaseRaw(1<<40, 1<<40)
	if err != ErrMathOverflow {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
}
