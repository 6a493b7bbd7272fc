package clob

import (
	"context"
	"sync"
)

// Market is the thin composition layer binding the engine, the two books,
// the event queue, and the per-user ledgers, and exposing the six
// top-level operations named in §6. It is the only type outside this
// package needs to hold: the host (cmd/clobd) talks to a Market, never to
// MatchingEngine/OrderBookSide/EventQueue directly.
//
// Every exported method here holds mu for its full duration, the Go
// rendition of "single-threaded, transaction-serial execution" — no
// operation suspends while holding it, so there is no deadlock risk and no
// concurrent mutation is ever observed mid-call.
type Market struct {
	mu sync.Mutex

	ID string

	BaseMint  string
	QuoteMint string

	BaseLotSize   int64
	QuoteTickSize int64
	NextOrderID   uint64

	engine   *MatchingEngine
	balances map[string]*UserBalance

	vault    TokenVault
	notifier Notifier
}

// NewMarket constructs an uninitialized Market. Call Initialize before any
// other operation.
func NewMarket(id string, vault TokenVault, notifier Notifier) *Market {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Market{
		ID:       id,
		balances: make(map[string]*UserBalance),
		vault:    vault,
		notifier: notifier,
	}
}

// Initialize sets market parameters, zeroes both books and the event
// queue, and starts next_order_id at 1. Matches §6's `initialize`.
func (m *Market) Initialize(baseMint, quoteMint string, baseLotSize, quoteTickSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if baseLotSize <= 0 || quoteTickSize <= 0 {
		return ErrInvalidParameter
	}
	if m.engine != nil {
		return ErrInvalidParameter
	}

	m.BaseMint = baseMint
	m.QuoteMint = quoteMint
	m.BaseLotSize = baseLotSize
	m.QuoteTickSize = quoteTickSize
	m.NextOrderID = 1
	m.engine = NewMatchingEngine(baseLotSize, quoteTickSize)

	m.notifier.MarketInitialized(baseLotSize, quoteTickSize)
	return nil
}

func (m *Market) balanceFor(owner string) *UserBalance {
	b, ok := m.balances[owner]
	if !ok {
		b = NewUserBalance(owner)
		m.balances[owner] = b
	}
	return b
}

// BalanceOf returns a copy of a user's ledger for tests and the HTTP
// boundary, taken while holding mu. Later changes to the live ledger are
// not reflected in the returned value.
func (m *Market) BalanceOf(owner string) UserBalance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.balanceFor(owner)
}

// Deposit moves amount from the vault into owner's available balance on
// side. Matches §6's `deposit`.
func (m *Market) Deposit(ctx context.Context, owner string, side AssetSide, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return ErrInvalidParameter
	}
	if err := m.vault.TransferIn(ctx, owner, side, amount); err != nil {
		return err
	}
	m.balanceFor(owner).Deposit(side, amount)
	return nil
}

// Withdraw debits owner's available balance and moves amount out through
// the vault. Matches §6's `withdraw`.
func (m *Market) Withdraw(ctx context.Context, owner string, side AssetSide, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return ErrInvalidParameter
	}
	bal := m.balanceFor(owner)
	if err := bal.Withdraw(side, amount); err != nil {
		return err
	}
	if err := m.vault.TransferOut(ctx, owner, side, amount); err != nil {
		// Vault leg failed after the ledger leg committed: restore the
		// ledger so the transaction looks fully reverted to the caller.
		bal.Deposit(side, amount)
		return err
	}
	return nil
}

// PlaceLimitOrder issues an order id, dispatches to the MatchingEngine, and
// emits the advisory notifications named in §4.4 step 6. Matches §6's
// `place_limit_order`.
func (m *Market) PlaceLimitOrder(owner string, side Side, price, qty int64, tif TimeInForce, timestamp int64) (*PlaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return nil, ErrInvalidParameter
	}

	orderID := m.NextOrderID
	taker := m.balanceFor(owner)

	result, err := m.engine.PlaceLimitOrder(taker, orderID, owner, side, price, qty, tif, timestamp)
	if err != nil {
		return nil, err
	}

	m.NextOrderID++

	m.notifier.OrderPlaced(&Order{OrderID: orderID, Owner: owner, Side: side, Price: price, Quantity: qty, Timestamp: timestamp, Sequence: orderID}, qty)
	for _, ev := range result.Fills {
		m.notifier.OrderFilled(ev)
	}
	return result, nil
}

// CancelOrder cancels a resting order and releases its reservation.
// Matches §6's `cancel_order`.
func (m *Market) CancelOrder(owner string, side Side, orderID uint64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return nil, ErrInvalidParameter
	}
	bal := m.balanceFor(owner)
	o, err := m.engine.CancelOrder(bal, side, orderID, owner)
	if err != nil {
		return nil, err
	}
	m.notifier.OrderCancelled(orderID, owner, o.Quantity)
	return o, nil
}

// ConsumeEvents drains up to limit events from the front of the queue,
// settling each against the caller-supplied ordered list of maker owners.
// Stops (without error) at the first maker mismatch or once makers is
// exhausted — see §4.6's consumer contract and the strict-order Open
// Question resolution in §9. Returns the number of events actually
// consumed.
//
// makers is a list of owner identifiers, not balances: the caller has no
// exported way to reach a live *UserBalance (BalanceOf deliberately hands
// back a snapshot copy, see its doc comment), so this method resolves each
// owner to its live ledger via balanceFor itself, the same way
// PlaceLimitOrder/CancelOrder do. Settling against a copy would drop the
// maker's reservation release and credit on the floor while still
// reporting the event consumed — see §4.5/§8 invariant 1.
func (m *Market) ConsumeEvents(limit int, makers []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		return 0, ErrInvalidParameter
	}

	consumed := 0
	for consumed < limit && consumed < len(makers) {
		ev, err := m.engine.Events.Front()
		if err != nil {
			break
		}
		if makers[consumed] != ev.MakerOwner {
			break
		}
		maker := m.balanceFor(makers[consumed])
		if err := maker.SettleMaker(ev.MakerSide, ev.Price, ev.Quantity, m.QuoteTickSize, m.BaseLotSize); err != nil {
			return consumed, err
		}
		if err := m.engine.Events.PopFront(); err != nil {
			return consumed, err
		}
		consumed++
	}
	return consumed, nil
}

// EventQueueLen reports how many unconsumed fill events are pending.
func (m *Market) EventQueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return 0
	}
	return m.engine.Events.Len()
}

// BestBidAsk returns the best resting price on each side, for the
// advisory book snapshot endpoint. Zero means empty.
func (m *Market) BestBidAsk() (bestBid, bestAsk int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return 0, 0
	}
	if o := m.engine.Bids.PeekBest(); o != nil {
		bestBid = o.Price
	}
	if o := m.engine.Asks.PeekBest(); o != nil {
		bestAsk = o.Price
	}
	return
}

// BookDepth returns the count of resting orders on each side, for the
// clob_book_depth gauge.
func (m *Market) BookDepth() (bidDepth, askDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine == nil {
		return 0, 0
	}
	return m.engine.Bids.Len(), m.engine.Asks.Len()
}
