package clob

// MatchingEngine drives a taker order against the opposite OrderBookSide,
// settles the taker synchronously, enqueues FillEvents for deferred maker
// settlement, and enforces GTC/IOC/FOK disposition of any remainder. It
// holds no UserBalance state itself — those are supplied per call by
// Market, which owns the account lookups — so the engine has nothing to
// lock and nothing to leak across calls.
type MatchingEngine struct {
	Bids          *OrderBookSide
	Asks          *OrderBookSide
	Events        *EventQueue
	BaseLotSize   int64
	QuoteTickSize int64
}

func NewMatchingEngine(baseLotSize, quoteTickSize int64) *MatchingEngine {
	return &MatchingEngine{
		Bids:          NewOrderBookSide(true),
		Asks:          NewOrderBookSide(false),
		Events:        NewEventQueue(),
		BaseLotSize:   baseLotSize,
		QuoteTickSize: quoteTickSize,
	}
}

func (e *MatchingEngine) sideBook(side Side) *OrderBookSide {
	if side == Bid {
		return e.Bids
	}
	return e.Asks
}

func (e *MatchingEngine) oppositeBook(side Side) *OrderBookSide {
	if side == Bid {
		return e.Asks
	}
	return e.Bids
}

// PlaceResult summarizes one place_limit_order call for the caller and for
// the Notifier fan-out.
type PlaceResult struct {
	OrderID   uint64
	Fills     []FillEvent
	FilledQty int64
	Rested    bool
	RestQty   int64
}

// PlaceLimitOrder implements §4.4 phases 1-5. orderID/timestamp are issued
// by the caller (Market owns next_order_id); taker is the caller-supplied
// UserBalance for owner. On any failure the taker's reservation taken in
// this call is fully released before returning — no partial state survives
// an error return.
func (e *MatchingEngine) PlaceLimitOrder(
	taker *UserBalance,
	orderID uint64,
	owner string,
	side Side,
	price, qty int64,
	tif TimeInForce,
	timestamp int64,
) (*PlaceResult, error) {
	if price <= 0 || qty <= 0 {
		return nil, ErrInvalidParameter
	}

	collateralSide := CollateralSide(side)
	reserveAmt, err := e.reservationAmount(side, price, qty)
	if err != nil {
		return nil, err
	}
	if err := taker.Reserve(collateralSide, reserveAmt); err != nil {
		return nil, err
	}

	if tif == FOK {
		if !e.fillable(side, price, qty) {
			_ = taker.Release(collateralSide, reserveAmt)
			return nil, ErrFillOrKillNotFilled
		}
	}

	result := &PlaceResult{OrderID: orderID}
	remaining := qty
	opposite := e.oppositeBook(side)

	for remaining > 0 {
		maker := opposite.PeekBest()
		if maker == nil || !Crosses(side, price, maker.Price) {
			break
		}

		fillQty := remaining
		if maker.Quantity < fillQty {
			fillQty = maker.Quantity
		}
		fillPrice := maker.Price

		if err := taker.SettleTaker(side, price, fillPrice, fillQty, e.QuoteTickSize, e.BaseLotSize); err != nil {
			e.releaseRemainder(taker, collateralSide, side, price, remaining)
			return nil, err
		}

		ev := FillEvent{
			MakerOrderID: maker.OrderID,
			TakerOrderID: orderID,
			MakerOwner:   maker.Owner,
			TakerOwner:   owner,
			TakerSide:    side,
			MakerSide:    maker.Side,
			Price:        fillPrice,
			Quantity:     fillQty,
			Timestamp:    timestamp,
		}
		if err := e.Events.Push(ev); err != nil {
			e.releaseRemainder(taker, collateralSide, side, price, remaining)
			return nil, err
		}
		result.Fills = append(result.Fills, ev)

		if err := opposite.DecrementBest(fillQty); err != nil {
			e.releaseRemainder(taker, collateralSide, side, price, remaining)
			return nil, err
		}

		remaining -= fillQty
		result.FilledQty += fillQty
	}

	switch tif {
	case GTC:
		if remaining > 0 {
			resting := &Order{
				OrderID:   orderID,
				Owner:     owner,
				Side:      side,
				Price:     price,
				Quantity:  remaining,
				Timestamp: timestamp,
				Sequence:  orderID,
			}
			if err := e.sideBook(side).PushOrder(resting); err != nil {
				e.releaseRemainder(taker, collateralSide, side, price, remaining)
				return nil, err
			}
			result.Rested = true
			result.RestQty = remaining
		}
	case IOC:
		if remaining > 0 {
			e.releaseRemainder(taker, collateralSide, side, price, remaining)
		}
	case FOK:
		// remaining == 0 by construction: the pre-check guaranteed enough
		// fillable liquidity crossed price.
	}

	return result, nil
}

// CancelOrder removes a resting order, verifies ownership, and releases
// its outstanding reservation. owner must be supplied by the caller and is
// checked against the resting order's recorded owner.
func (e *MatchingEngine) CancelOrder(balance *UserBalance, side Side, orderID uint64, owner string) (*Order, error) {
	book := e.sideBook(side)
	existing, ok := book.Find(orderID)
	if !ok {
		return nil, ErrOrderNotFound
	}
	if existing.Owner != owner {
		return nil, ErrUnauthorized
	}
	o, err := book.CancelByID(orderID)
	if err != nil {
		return nil, err
	}
	amt, err := e.reservationAmount(side, o.Price, o.Quantity)
	if err != nil {
		return nil, err
	}
	if err := balance.Release(CollateralSide(side), amt); err != nil {
		return nil, err
	}
	return o, nil
}

// reservationAmount returns the raw collateral a taker/resting order of
// this side and price must hold for qty lots: quote_cost for a Bid,
// base_raw for an Ask.
func (e *MatchingEngine) reservationAmount(side Side, price, qty int64) (uint64, error) {
	if side == Bid {
		return QuoteCost(price, qty, e.QuoteTickSize, e.BaseLotSize)
	}
	return BaseRaw(qty, e.BaseLotSize)
}

func (e *MatchingEngine) releaseRemainder(taker *UserBalance, collateralSide AssetSide, side Side, price, remaining int64) {
	amt, err := e.reservationAmount(side, price, remaining)
	if err != nil {
		return
	}
	_ = taker.Release(collateralSide, amt)
}

// fillable walks the opposite book without mutating it, summing quantity
// available at prices that cross price, stopping as soon as it has proof
// of qty. Used only for the FOK pre-check in phase 3.
func (e *MatchingEngine) fillable(side Side, price, qty int64) bool {
	opposite := e.oppositeBook(side)
	var sum int64
	for _, o := range opposite.orders {
		if !Crosses(side, price, o.Price) {
			continue
		}
		sum += o.Quantity
		if sum >= qty {
			return true
		}
	}
	return false
}
