package clob

import "container/heap"

// OrderBookSide is a bounded priority queue of resting Orders for one side
// of a market, ordered by price-time priority. It is a thin wrapper around
// container/heap: the stdlib heap's Remove/Fix already perform the
// "swap with the last element, pop, then sift" cancel algorithm this type
// needs, so there is no custom sift code here.
type OrderBookSide struct {
	isBid    bool
	orders   []*Order
	byID     map[uint64]*Order
	capacity int
}

func NewOrderBookSide(isBid bool) *OrderBookSide {
	return &OrderBookSide{
		isBid:    isBid,
		orders:   make([]*Order, 0, 64),
		byID:     make(map[uint64]*Order, 64),
		capacity: MaxOrders,
	}
}

// container/heap.Interface

func (s *OrderBookSide) Len() int { return len(s.orders) }

func (s *OrderBookSide) Less(i, j int) bool {
	a, b := s.orders[i], s.orders[j]
	if a.Price != b.Price {
		if s.isBid {
			return a.Price > b.Price // higher price is better for a bid
		}
		return a.Price < b.Price // lower price is better for an ask
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp // earlier timestamp wins
	}
	return a.Sequence < b.Sequence // smaller sequence is the hard tie-break
}

func (s *OrderBookSide) Swap(i, j int) {
	s.orders[i], s.orders[j] = s.orders[j], s.orders[i]
	s.orders[i].index = i
	s.orders[j].index = j
}

func (s *OrderBookSide) Push(x any) {
	o := x.(*Order)
	o.index = len(s.orders)
	s.orders = append(s.orders, o)
}

func (s *OrderBookSide) Pop() any {
	n := len(s.orders)
	o := s.orders[n-1]
	s.orders[n-1] = nil
	s.orders = s.orders[:n-1]
	o.index = -1
	return o
}

// PushOrder adds a resting order, failing with ErrBookFull at capacity.
func (s *OrderBookSide) PushOrder(o *Order) error {
	if len(s.orders) >= s.capacity {
		return ErrBookFull
	}
	heap.Push(s, o)
	s.byID[o.OrderID] = o
	return nil
}

// PeekBest returns the best order without removing it, or nil if empty.
func (s *OrderBookSide) PeekBest() *Order {
	if len(s.orders) == 0 {
		return nil
	}
	return s.orders[0]
}

// PopBest removes and returns the best order, failing with ErrOrderNotFound
// if the side is empty.
func (s *OrderBookSide) PopBest() (*Order, error) {
	if len(s.orders) == 0 {
		return nil, ErrOrderNotFound
	}
	o := heap.Pop(s).(*Order)
	delete(s.byID, o.OrderID)
	return o, nil
}

// DecrementBest reduces the root order's remaining quantity by qty,
// popping it if it reaches zero. No re-heapification is needed for a
// non-zero remainder: shrinking the root's quantity cannot change its
// relative order against siblings, since K(o) never depends on quantity.
func (s *OrderBookSide) DecrementBest(qty int64) error {
	if len(s.orders) == 0 {
		return ErrOrderNotFound
	}
	root := s.orders[0]
	root.Quantity -= qty
	if root.Quantity <= 0 {
		_, err := s.PopBest()
		return err
	}
	return nil
}

// CancelByID removes and returns the order with the given id. The byID map
// finds it in O(1), then heap.Remove's swap-with-last-and-sift is O(log n).
func (s *OrderBookSide) CancelByID(orderID uint64) (*Order, error) {
	o, ok := s.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	heap.Remove(s, o.index)
	delete(s.byID, orderID)
	return o, nil
}

// Find returns the resting order with the given id without removing it.
func (s *OrderBookSide) Find(orderID uint64) (*Order, bool) {
	o, ok := s.byID[orderID]
	return o, ok
}

// Crosses reports whether a resting order at restingPrice would match a
// taker order of takerSide at takerPrice.
func Crosses(takerSide Side, takerPrice, restingPrice int64) bool {
	if takerSide == Bid {
		return restingPrice <= takerPrice
	}
	return restingPrice >= takerPrice
}
