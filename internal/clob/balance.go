package clob

// AssetSide selects which of a user's two ledgers an operation touches.
// Kept distinct from Side (Bid/Ask) even though the two are related by
// convention — a Bid reserves Quote, an Ask reserves Base — because a
// UserBalance has no notion of "which order side placed me here".
type AssetSide uint8

const (
	Base AssetSide = iota
	Quote
)

// CollateralSide returns which ledger a resting order of this order side
// reserves against: a Bid reserves quote, an Ask reserves base.
func CollateralSide(orderSide Side) AssetSide {
	if orderSide == Bid {
		return Quote
	}
	return Base
}

// ReceivedSide returns which ledger a fill credits on the taker/maker that
// holds this order side: a Bid receives base, an Ask receives quote.
func ReceivedSide(orderSide Side) AssetSide {
	if orderSide == Bid {
		return Base
	}
	return Quote
}

// UserBalance is the per-(market, user) ledger of available vs reserved
// base and quote. Reserved funds are earmarked for resting orders and
// cannot be withdrawn; the invariant that reserved always equals the sum
// of collateral needed by this user's resting orders is maintained by the
// OrderBookSide/MatchingEngine call sites, never inside this type.
type UserBalance struct {
	Owner string

	BaseAvailable  uint64
	BaseReserved   uint64
	QuoteAvailable uint64
	QuoteReserved  uint64
}

func NewUserBalance(owner string) *UserBalance {
	return &UserBalance{Owner: owner}
}

// Deposit credits available funds on the given side. Always succeeds.
func (b *UserBalance) Deposit(side AssetSide, raw uint64) {
	b.setAvailable(side, b.available(side)+raw)
}

// Withdraw debits available funds, failing with ErrInsufficientBalance if
// the side does not have enough available.
func (b *UserBalance) Withdraw(side AssetSide, raw uint64) error {
	avail := b.available(side)
	if avail < raw {
		return ErrInsufficientBalance
	}
	b.setAvailable(side, avail-raw)
	return nil
}

// Reserve moves raw from available to reserved on the given side.
func (b *UserBalance) Reserve(side AssetSide, raw uint64) error {
	avail := b.available(side)
	if avail < raw {
		return ErrInsufficientBalance
	}
	b.setAvailable(side, avail-raw)
	b.setReserved(side, b.reserved(side)+raw)
	return nil
}

// Release moves raw from reserved back to available on the given side.
// Called on cancellation and on every reservation rollback path.
func (b *UserBalance) Release(side AssetSide, raw uint64) error {
	res := b.reserved(side)
	if res < raw {
		return errInvariantViolation
	}
	b.setReserved(side, res-raw)
	b.setAvailable(side, b.available(side)+raw)
	return nil
}

// SettleTaker consumes the taker's reservation for exactly one fill and
// credits the received asset. orderPrice is the price the taker reserved
// against at placement time; fillPrice is the maker's price the fill
// actually executed at (fillPrice <= orderPrice for a Bid taker, >= for an
// Ask taker — price improvement always favors the taker, so the
// reserved-minus-consumed difference is always a refund, never a shortfall).
func (b *UserBalance) SettleTaker(takerSide Side, orderPrice, fillPrice, fillQty, quoteTickSize, baseLotSize int64) error {
	baseAmt, err := BaseRaw(fillQty, baseLotSize)
	if err != nil {
		return err
	}
	fillQuote, err := QuoteCost(fillPrice, fillQty, quoteTickSize, baseLotSize)
	if err != nil {
		return err
	}

	if takerSide == Bid {
		reservedQuote, err := QuoteCost(orderPrice, fillQty, quoteTickSize, baseLotSize)
		if err != nil {
			return err
		}
		if b.QuoteReserved < reservedQuote {
			return errInvariantViolation
		}
		refund := reservedQuote - fillQuote
		b.QuoteReserved -= reservedQuote
		b.QuoteAvailable += refund
		b.BaseAvailable += baseAmt
		return nil
	}

	if b.BaseReserved < baseAmt {
		return errInvariantViolation
	}
	b.BaseReserved -= baseAmt
	b.QuoteAvailable += fillQuote
	return nil
}

// SettleMaker debits the maker's reserved collateral and credits the
// received side, using fillPrice (always the maker's own resting price —
// see MatchingEngine) rather than any other price. Called from
// Market.ConsumeEvents as each FillEvent is drained.
func (b *UserBalance) SettleMaker(makerSide Side, fillPrice, fillQty, quoteTickSize, baseLotSize int64) error {
	baseAmt, err := BaseRaw(fillQty, baseLotSize)
	if err != nil {
		return err
	}
	quoteAmt, err := QuoteCost(fillPrice, fillQty, quoteTickSize, baseLotSize)
	if err != nil {
		return err
	}

	if makerSide == Bid {
		if b.QuoteReserved < quoteAmt {
			return errInvariantViolation
		}
		b.QuoteReserved -= quoteAmt
		b.BaseAvailable += baseAmt
		return nil
	}

	if b.BaseReserved < baseAmt {
		return errInvariantViolation
	}
	b.BaseReserved -= baseAmt
	b.QuoteAvailable += quoteAmt
	return nil
}

// VerifyInvariant reports the two available+reserved totals used by the
// cross-user vault-balance invariant in tests.
func (b *UserBalance) VerifyInvariant() (baseTotal, quoteTotal uint64) {
	return b.BaseAvailable + b.BaseReserved, b.QuoteAvailable + b.QuoteReserved
}

func (b *UserBalance) available(side AssetSide) uint64 {
	if side == Quote {
		return b.QuoteAvailable
	}
	return b.BaseAvailable
}

func (b *UserBalance) reserved(side AssetSide) uint64 {
	if side == Quote {
		return b.QuoteReserved
	}
	return b.BaseReserved
}

func (b *UserBalance) setAvailable(side AssetSide, v uint64) {
	if side == Quote {
		b.QuoteAvailable = v
	} else {
		b.BaseAvailable = v
	}
}

func (b *UserBalance) setReserved(side AssetSide, v uint64) {
	if side == Quote {
		b.QuoteReserved = v
	} else {
		b.BaseReserved = v
	}
}
