// Package notify fans out the matching engine's advisory notifications
// (OrderPlaced, OrderFilled, OrderCancelled, MarketInitialized) to
// subscribers such as cmd/clobd's websocket feed. These are best-effort:
// the authoritative state is internal/clob's EventQueue and UserBalances,
// never this bus — see clob.Notifier's doc comment.
package notify

import (
	"sync/atomic"

	"gopherex.com/internal/clob"
	"gopherex.com/pkg/metrics"
)

type EventType uint8

const (
	OrderPlaced EventType = iota
	OrderFilled
	OrderCancelled
	MarketInitialized
)

func (t EventType) String() string {
	switch t {
	case OrderPlaced:
		return "order_placed"
	case OrderFilled:
		return "order_filled"
	case OrderCancelled:
		return "order_cancelled"
	case MarketInitialized:
		return "market_initialized"
	default:
		return "unknown"
	}
}

// Event is the wire shape pushed to websocket subscribers. Fields unused by
// a given Type are left zero; this is advisory data, not a typed union —
// a flattened shape rather than a typed union, matching this repo's other
// event buses.
type Event struct {
	Type     EventType `json:"type"`
	MarketID string    `json:"market_id"`

	OrderID      uint64 `json:"order_id,omitempty"`
	MakerOrderID uint64 `json:"maker_order_id,omitempty"`
	Owner        string `json:"owner,omitempty"`
	MakerOwner   string `json:"maker_owner,omitempty"`
	TakerOwner   string `json:"taker_owner,omitempty"`
	Side         string `json:"side,omitempty"`

	Price             int64 `json:"price,omitempty"`
	Quantity          int64 `json:"quantity,omitempty"`
	OriginalQuantity  int64 `json:"original_quantity,omitempty"`
	RemainingQuantity int64 `json:"remaining_quantity,omitempty"`

	BaseLotSize   int64 `json:"base_lot_size,omitempty"`
	QuoteTickSize int64 `json:"quote_tick_size,omitempty"`
}

// Bus is a bounded, non-blocking channel. A full channel increments the
// clob_notify_dropped_total counter rather than blocking the caller —
// Market calls its Notifier while still holding Market.mu, so a publish
// must never wait. C() is one shared channel: each event is received by
// exactly one reader, so concurrent readers (for example several Stream
// connections) split the events between them rather than each seeing all.
type Bus struct {
	ch      chan Event
	dropped uint64
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1 << 12
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish attempts a non-blocking send, returning false if the bus is full.
func (b *Bus) Publish(ev Event) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		atomic.AddUint64(&b.dropped, 1)
		metrics.NotifyDroppedTotal.Inc()
		return false
	}
}

func (b *Bus) C() <-chan Event { return b.ch }

func (b *Bus) Dropped() uint64 { return atomic.LoadUint64(&b.dropped) }

// ClobNotifier adapts a Bus to clob.Notifier for one market, translating
// each callback into the flattened Event shape above.
type ClobNotifier struct {
	bus      *Bus
	marketID string
}

func NewClobNotifier(bus *Bus, marketID string) *ClobNotifier {
	return &ClobNotifier{bus: bus, marketID: marketID}
}

func (n *ClobNotifier) OrderPlaced(o *clob.Order, originalQty int64) {
	n.bus.Publish(Event{
		Type:             OrderPlaced,
		MarketID:         n.marketID,
		OrderID:          o.OrderID,
		Owner:            o.Owner,
		Side:             o.Side.String(),
		Price:            o.Price,
		OriginalQuantity: originalQty,
	})
}

func (n *ClobNotifier) OrderFilled(ev clob.FillEvent) {
	n.bus.Publish(Event{
		Type:         OrderFilled,
		MarketID:     n.marketID,
		OrderID:      ev.TakerOrderID,
		MakerOrderID: ev.MakerOrderID,
		MakerOwner:   ev.MakerOwner,
		TakerOwner:   ev.TakerOwner,
		Side:         ev.TakerSide.String(),
		Price:        ev.Price,
		Quantity:     ev.Quantity,
	})
}

func (n *ClobNotifier) OrderCancelled(orderID uint64, owner string, remainingQty int64) {
	n.bus.Publish(Event{
		Type:              OrderCancelled,
		MarketID:          n.marketID,
		OrderID:           orderID,
		Owner:             owner,
		RemainingQuantity: remainingQty,
	})
}

func (n *ClobNotifier) MarketInitialized(baseLotSize, quoteTickSize int64) {
	n.bus.Publish(Event{
		Type:          MarketInitialized,
		MarketID:      n.marketID,
		BaseLotSize:   baseLotSize,
		QuoteTickSize: quoteTickSize,
	})
}
