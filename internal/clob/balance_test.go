package clob

import "testing"

func TestUserBalance_DepositWithdraw(t *testing.T) {
	b := NewUserBalance("alice")
	b.Deposit(Base, 1000)
	if b.BaseAvailable != 1000 {
		t.Fatalf("expected 1000, got %d", b.BaseAvailable)
	}
	if err := b.Withdraw(Base, 400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.BaseAvailable != 600 {
		t.Fatalf("expected 600, got %d", b.BaseAvailable)
	}
	if err := b.Withdraw(Base, 1000); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestUserBalance_ReserveRelease(t *testing.T) {
	b := NewUserBalance("alice")
	b.Deposit(Quote, 500)
	if err := b.Reserve(Quote, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.QuoteAvailable != 200 || b.QuoteReserved != 300 {
		t.Fatalf("unexpected balances: available=%d reserved=%d", b.QuoteAvailable, b.QuoteReserved)
	}
	if err := b.Reserve(Quote, 300); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := b.Release(Quote, 300); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.QuoteAvailable != 500 || b.QuoteReserved != 0 {
		t.Fatalf("unexpected balances after release: available=%d reserved=%d", b.QuoteAvailable, b.QuoteReserved)
	}
}

func TestUserBalance_ReleaseMoreThanReservedViolatesInvariant(t *testing.T) {
	b := NewUserBalance("alice")
	if err := b.Release(Base, 1); err == nil {
		t.Fatalf("expected invariant violation error, got nil")
	}
}

func TestCollateralAndReceivedSide(t *testing.T) {
	if CollateralSide(Bid) != Quote {
		t.Fatalf("expected a bid to reserve quote")
	}
	if CollateralSide(Ask) != Base {
		t.Fatalf("expected an ask to reserve base")
	}
	if ReceivedSide(Bid) != Base {
		t.Fatalf("expected a bid to receive base")
	}
	if ReceivedSide(Ask) != Quote {
		t.Fatalf("expected an ask to receive quote")
	}
}

// TestSettleTaker_PriceImprovementRefundsExactDifference covers the
// algebraic law that a taker's reserved-minus-consumed quote is always a
// refund: buying at a better (lower) price than reserved must return the
// unspent portion exactly, never short the taker a unit.
func TestSettleTaker_PriceImprovementRefundsExactDifference(t *testing.T) {
	b := NewUserBalance("bob")
	b.Deposit(Quote, 1000)
	if err := b.Reserve(Quote, 1000); err != nil { // reserved at price 100, qty 10 (tick=1, lot=1)
		t.Fatalf("reserve: %v", err)
	}
	if err := b.SettleTaker(Bid, 100, 90, 10, 1, 1); err != nil {
		t.Fatalf("settle taker: %v", err)
	}
	if b.QuoteReserved != 0 {
		t.Fatalf("expected reservation fully consumed, got %d remaining", b.QuoteReserved)
	}
	if b.QuoteAvailable != 100 {
		t.Fatalf("expected refund of 100, got %d", b.QuoteAvailable)
	}
	if b.BaseAvailable != 10 {
		t.Fatalf("expected 10 base credited, got %d", b.BaseAvailable)
	}
}

func TestSettleMaker_Ask(t *testing.T) {
	b := NewUserBalance("carol")
	b.Deposit(Base, 50)
	if err := b.Reserve(Base, 50); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := b.SettleMaker(Ask, 20, 50, 1, 1); err != nil {
		t.Fatalf("settle maker: %v", err)
	}
	if b.BaseReserved != 0 {
		t.Fatalf("expected reservation consumed, got %d", b.BaseReserved)
	}
	if b.QuoteAvailable != 1000 {
		t.Fatalf("expected 1000 quote credited, got %d", b.QuoteAvailable)
	}
}

func TestVerifyInvariant_ConservesTotalAcrossReserveRelease(t *testing.T) {
	b := NewUserBalance("dave")
	b.Deposit(Base, 100)
	b.Deposit(Quote, 200)
	baseBefore, quoteBefore := b.VerifyInvariant()

	if err := b.Reserve(Base, 40); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := b.Release(Base, 40); err != nil {
		t.Fatalf("release: %v", err)
	}

	baseAfter, quoteAfter := b.VerifyInvariant()
	if baseAfter != baseBefore || quoteAfter != quoteBefore {
		t.Fatalf("reserve/release round trip must conserve totals: before=(%d,%d) after=(%d,%d)",
			baseBefore, quoteBefore, baseAfter, quoteAfter)
	}
}
