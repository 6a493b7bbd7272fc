package clob

import (
	"context"
	"math/rand"
	"testing"
)

// stubVault is an in-memory TokenVault good enough for Market tests: it
// never fails TransferOut, so every test's Deposit/Withdraw calls exercise
// only the ledger side of Market, not vault error handling.
type stubVault struct{}

func (stubVault) TransferIn(context.Context, string, AssetSide, uint64) error  { return nil }
func (stubVault) TransferOut(context.Context, string, AssetSide, uint64) error { return nil }

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	m := NewMarket("BTC-USD", stubVault{}, nil)
	if err := m.Initialize("BTC", "USD", 1, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return m
}

func fund(t *testing.T, m *Market, owner string, base, quote uint64) {
	t.Helper()
	if base > 0 {
		if err := m.Deposit(context.Background(), owner, Base, base); err != nil {
			t.Fatalf("deposit base: %v", err)
		}
	}
	if quote > 0 {
		if err := m.Deposit(context.Background(), owner, Quote, quote); err != nil {
			t.Fatalf("deposit quote: %v", err)
		}
	}
}

func TestMarket_BasicMatch(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 10, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	result, err := m.PlaceLimitOrder("taker", Bid, 100, 10, GTC, 2)
	if err != nil {
		t.Fatalf("taker place: %v", err)
	}
	if result.FilledQty != 10 || result.Rested {
		t.Fatalf("expected full fill with no rest, got %+v", result)
	}
	if len(result.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(result.Fills))
	}
	if m.EventQueueLen() != 1 {
		t.Fatalf("expected 1 pending event, got %d", m.EventQueueLen())
	}
}

func TestMarket_PartialFillRests(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 4, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	result, err := m.PlaceLimitOrder("taker", Bid, 100, 10, GTC, 2)
	if err != nil {
		t.Fatalf("taker place: %v", err)
	}
	if result.FilledQty != 4 || !result.Rested || result.RestQty != 6 {
		t.Fatalf("expected partial fill of 4 and rest of 6, got %+v", result)
	}
	bestBid, _ := m.BestBidAsk()
	if bestBid != 100 {
		t.Fatalf("expected remaining 6 lots resting at 100, got best bid %d", bestBid)
	}
}

func TestMarket_PriceTimePriorityAcrossMakers(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "early", 100, 0)
	fund(t, m, "late", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("early", Ask, 100, 5, GTC, 1); err != nil {
		t.Fatalf("early place: %v", err)
	}
	if _, err := m.PlaceLimitOrder("late", Ask, 100, 5, GTC, 2); err != nil {
		t.Fatalf("late place: %v", err)
	}
	result, err := m.PlaceLimitOrder("taker", Bid, 100, 5, GTC, 3)
	if err != nil {
		t.Fatalf("taker place: %v", err)
	}
	if len(result.Fills) != 1 || result.Fills[0].MakerOwner != "early" {
		t.Fatalf("expected the earlier resting order to fill first, got %+v", result.Fills)
	}
}

func TestMarket_PriceImprovementRefund(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker", Ask, 90, 10, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	// Taker bids up to 100 but only pays the maker's resting price of 90.
	if _, err := m.PlaceLimitOrder("taker", Bid, 100, 10, GTC, 2); err != nil {
		t.Fatalf("taker place: %v", err)
	}
	taker := m.BalanceOf("taker")
	// Reserved 1000 (100*10) up front; settled at 900 (90*10); refund 100.
	if taker.QuoteAvailable != 9100 {
		t.Fatalf("expected refund leaving 9100 available quote, got %d", taker.QuoteAvailable)
	}
	if taker.QuoteReserved != 0 {
		t.Fatalf("expected reservation fully released, got %d", taker.QuoteReserved)
	}
	if taker.BaseAvailable != 10 {
		t.Fatalf("expected 10 base credited, got %d", taker.BaseAvailable)
	}
}

func TestMarket_IOCUnfilledRemainderIsReleasedNotRested(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "taker", 0, 10000)

	result, err := m.PlaceLimitOrder("taker", Bid, 100, 10, IOC, 1)
	if err != nil {
		t.Fatalf("taker place: %v", err)
	}
	if result.FilledQty != 0 || result.Rested {
		t.Fatalf("expected nothing filled and nothing rested, got %+v", result)
	}
	taker := m.BalanceOf("taker")
	if taker.QuoteReserved != 0 || taker.QuoteAvailable != 10000 {
		t.Fatalf("expected full reservation released, got available=%d reserved=%d",
			taker.QuoteAvailable, taker.QuoteReserved)
	}
	bestBid, _ := m.BestBidAsk()
	if bestBid != 0 {
		t.Fatalf("expected nothing resting, got best bid %d", bestBid)
	}
}

func TestMarket_FillOrKillRejectedLeavesNoTrace(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 4, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	_, err := m.PlaceLimitOrder("taker", Bid, 100, 10, FOK, 2)
	if err != ErrFillOrKillNotFilled {
		t.Fatalf("expected ErrFillOrKillNotFilled, got %v", err)
	}
	taker := m.BalanceOf("taker")
	if taker.QuoteReserved != 0 || taker.QuoteAvailable != 10000 {
		t.Fatalf("expected no trace of the rejected FOK reservation, got available=%d reserved=%d",
			taker.QuoteAvailable, taker.QuoteReserved)
	}
	if m.EventQueueLen() != 0 {
		t.Fatalf("expected no fill events from a rejected FOK, got %d", m.EventQueueLen())
	}
}

func TestMarket_FillOrKillFilledExactly(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 10, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	result, err := m.PlaceLimitOrder("taker", Bid, 100, 10, FOK, 2)
	if err != nil {
		t.Fatalf("unexpected FOK rejection: %v", err)
	}
	if result.FilledQty != 10 || result.Rested {
		t.Fatalf("expected a full fill with nothing resting, got %+v", result)
	}
}

func TestMarket_ConsumeEvents_StopsAtOutOfOrderMaker(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker1", 100, 0)
	fund(t, m, "maker2", 100, 0)
	fund(t, m, "taker", 0, 10000)

	if _, err := m.PlaceLimitOrder("maker1", Ask, 100, 3, GTC, 1); err != nil {
		t.Fatalf("maker1 place: %v", err)
	}
	if _, err := m.PlaceLimitOrder("maker2", Ask, 100, 3, GTC, 2); err != nil {
		t.Fatalf("maker2 place: %v", err)
	}
	if _, err := m.PlaceLimitOrder("taker", Bid, 100, 6, GTC, 3); err != nil {
		t.Fatalf("taker place: %v", err)
	}
	if m.EventQueueLen() != 2 {
		t.Fatalf("expected 2 pending events, got %d", m.EventQueueLen())
	}

	// Wrong order: the front event belongs to maker1, not maker2.
	consumed, err := m.ConsumeEvents(2, []string{"maker2", "maker1"})
	if err != nil {
		t.Fatalf("consume events: %v", err)
	}
	if consumed != 0 {
		t.Fatalf("expected 0 consumed on an out-of-order maker list, got %d", consumed)
	}
	if m.EventQueueLen() != 2 {
		t.Fatalf("expected events untouched after a rejected consume, got %d", m.EventQueueLen())
	}

	consumed, err = m.ConsumeEvents(2, []string{"maker1", "maker2"})
	if err != nil {
		t.Fatalf("consume events: %v", err)
	}
	if consumed != 2 {
		t.Fatalf("expected both events consumed in order, got %d", consumed)
	}
	if m.EventQueueLen() != 0 {
		t.Fatalf("expected event queue drained, got %d", m.EventQueueLen())
	}

	// The settlement must land on the real ledger entries, not a detached
	// copy — each maker sold 3 base at 100 and should see the reservation
	// fully released and the proceeds credited.
	maker1After := m.BalanceOf("maker1")
	if maker1After.BaseReserved != 0 {
		t.Fatalf("expected maker1's base reservation released, got %d", maker1After.BaseReserved)
	}
	if maker1After.QuoteAvailable != 300 {
		t.Fatalf("expected maker1 credited 300 quote, got %d", maker1After.QuoteAvailable)
	}
	maker2After := m.BalanceOf("maker2")
	if maker2After.BaseReserved != 0 {
		t.Fatalf("expected maker2's base reservation released, got %d", maker2After.BaseReserved)
	}
	if maker2After.QuoteAvailable != 300 {
		t.Fatalf("expected maker2 credited 300 quote, got %d", maker2After.QuoteAvailable)
	}
}

func TestMarket_CancelOrder_WrongOwnerRejected(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 10, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	if _, err := m.CancelOrder("impostor", Ask, 1); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMarket_CancelOrder_ReleasesReservation(t *testing.T) {
	m := newTestMarket(t)
	fund(t, m, "maker", 100, 0)
	if _, err := m.PlaceLimitOrder("maker", Ask, 100, 10, GTC, 1); err != nil {
		t.Fatalf("maker place: %v", err)
	}
	if _, err := m.CancelOrder("maker", Ask, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	maker := m.BalanceOf("maker")
	if maker.BaseReserved != 0 || maker.BaseAvailable != 100 {
		t.Fatalf("expected reservation fully released, got available=%d reserved=%d",
			maker.BaseAvailable, maker.BaseReserved)
	}
}

// TestMarket_RandomSweep_KeepsUserTotalsBounded runs 500 random
// orders/cancels/event consumptions from a fixed seed, one after another,
// and then checks that each user's available+reserved base and quote stays
// within 1,000,000 of what that user deposited. Events still pending at the
// end are not drained first, and the book itself is not compared with the
// ledgers.
func TestMarket_RandomSweep_KeepsUserTotalsBounded(t *testing.T) {
	m := newTestMarket(t)
	rng := rand.New(rand.NewSource(42))

	owners := []string{"u1", "u2", "u3", "u4"}
	depositedBase := make(map[string]uint64)
	depositedQuote := make(map[string]uint64)
	for _, o := range owners {
		depositedBase[o] = 100000
		depositedQuote[o] = 100000
		fund(t, m, o, 100000, 100000)
	}

	var resting []struct {
		owner string
		side  Side
		id    uint64
	}
	var pendingMakers []string

	for i := 0; i < 500; i++ {
		owner := owners[rng.Intn(len(owners))]
		switch rng.Intn(4) {
		case 0, 1:
			side := Bid
			if rng.Intn(2) == 1 {
				side = Ask
			}
			price := int64(90 + rng.Intn(21))
			qty := int64(1 + rng.Intn(10))
			tifs := []TimeInForce{GTC, IOC, FOK}
			tif := tifs[rng.Intn(len(tifs))]
			result, err := m.PlaceLimitOrder(owner, side, price, qty, tif, int64(i))
			if err != nil {
				continue // insufficient balance / FOK reject / book full are all expected outcomes
			}
			if result.Rested {
				resting = append(resting, struct {
					owner string
					side  Side
					id    uint64
				}{owner, side, result.OrderID})
			}
			for _, ev := range result.Fills {
				pendingMakers = append(pendingMakers, ev.MakerOwner)
			}
		case 2:
			if len(resting) == 0 {
				continue
			}
			idx := rng.Intn(len(resting))
			r := resting[idx]
			_, _ = m.CancelOrder(r.owner, r.side, r.id)
			resting = append(resting[:idx], resting[idx+1:]...)
		case 3:
			if len(pendingMakers) == 0 {
				continue
			}
			consumed, err := m.ConsumeEvents(len(pendingMakers), pendingMakers)
			if err != nil {
				t.Fatalf("consume events: %v", err)
			}
			pendingMakers = pendingMakers[consumed:]
		}
	}

	for _, o := range owners {
		b := m.BalanceOf(o)
		baseTotal, quoteTotal := b.VerifyInvariant()
		if baseTotal > depositedBase[o]+1_000_000 {
			t.Fatalf("owner %s base total %d implausibly exceeds deposits", o, baseTotal)
		}
		if quoteTotal > depositedQuote[o]+1_000_000 {
			t.Fatalf("owner %s quote total %d implausibly exceeds deposits", o, quoteTotal)
		}
	}
}
