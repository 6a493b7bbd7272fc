// Package handler implements the gin handlers behind every route
// internal/clobd/http/router/market.go registers, the same thin
// handler-calls-domain-object shape used throughout this repo.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopherex.com/internal/clob"
	"gopherex.com/internal/clobd/app"
	"gopherex.com/pkg/common"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/metrics"
	"gopherex.com/pkg/xerr"
)

type Market struct {
	App *app.App
}

func New(a *app.App) *Market {
	return &Market{App: a}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type initializeRequest struct {
	BaseMint      string `json:"base_mint" binding:"required"`
	QuoteMint     string `json:"quote_mint" binding:"required"`
	BaseLotSize   int64  `json:"base_lot_size" binding:"required"`
	QuoteTickSize int64  `json:"quote_tick_size" binding:"required"`
}

// Initialize handles POST /markets/:marketID.
func (h *Market) Initialize(c *gin.Context) {
	marketID := c.Param("marketID")
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	m, err := h.App.CreateMarket(marketID, req.BaseMint, req.QuoteMint, req.BaseLotSize, req.QuoteTickSize)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	common.Success(c, gin.H{
		"market_id":       m.ID,
		"base_lot_size":   m.BaseLotSize,
		"quote_tick_size": m.QuoteTickSize,
	})
}

type depositRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Side   string `json:"side" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

// Deposit handles POST /markets/:marketID/deposit.
func (h *Market) Deposit(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	side, err := parseAssetSide(req.Side)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	if err := m.Deposit(c.Request.Context(), req.Owner, side, req.Amount); err != nil {
		common.FailEngineError(c, err)
		return
	}
	common.Success(c, m.BalanceOf(req.Owner))
}

type withdrawRequest struct {
	Owner  string `json:"owner" binding:"required"`
	Side   string `json:"side" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

// Withdraw handles POST /markets/:marketID/withdraw.
func (h *Market) Withdraw(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	side, err := parseAssetSide(req.Side)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	if err := m.Withdraw(c.Request.Context(), req.Owner, side, req.Amount); err != nil {
		common.FailEngineError(c, err)
		return
	}
	common.Success(c, m.BalanceOf(req.Owner))
}

type placeOrderRequest struct {
	Owner       string `json:"owner" binding:"required"`
	Side        string `json:"side" binding:"required"`
	Price       int64  `json:"price" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required"`
	TimeInForce string `json:"time_in_force"`
}

// PlaceOrder handles POST /markets/:marketID/orders.
func (h *Market) PlaceOrder(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	tif, err := parseTimeInForce(req.TimeInForce)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}

	result, err := m.PlaceLimitOrder(req.Owner, side, req.Price, req.Quantity, tif, time.Now().UnixNano())
	if err != nil {
		metrics.OrdersRejectedTotal.WithLabelValues(m.ID, strconv.Itoa(xerr.FromEngineError(err).Code)).Inc()
		common.FailEngineError(c, err)
		return
	}
	metrics.OrdersPlacedTotal.WithLabelValues(m.ID, tif.String()).Inc()
	metrics.FillsTotal.WithLabelValues(m.ID).Add(float64(len(result.Fills)))
	metrics.EventQueueDepth.WithLabelValues(m.ID).Set(float64(m.EventQueueLen()))
	recordBookDepth(m)
	common.Success(c, gin.H{
		"order_id":   result.OrderID,
		"filled_qty": result.FilledQty,
		"rested":     result.Rested,
		"rest_qty":   result.RestQty,
		"fills":      result.Fills,
	})
}

// CancelOrder handles DELETE /markets/:marketID/orders/:orderID.
func (h *Market) CancelOrder(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	owner := c.Query("owner")
	side, err := parseSide(c.Query("side"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	orderID, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, "invalid order id")
		return
	}
	o, err := m.CancelOrder(owner, side, orderID)
	if err != nil {
		common.FailEngineError(c, err)
		return
	}
	recordBookDepth(m)
	common.Success(c, gin.H{"order_id": o.OrderID, "remaining_quantity": o.Quantity})
}

// recordBookDepth refreshes the clob_book_depth gauge on both sides after
// an operation that can change resting order counts.
func recordBookDepth(m *clob.Market) {
	bidDepth, askDepth := m.BookDepth()
	metrics.BookDepth.WithLabelValues(m.ID, "bid").Set(float64(bidDepth))
	metrics.BookDepth.WithLabelValues(m.ID, "ask").Set(float64(askDepth))
}

type consumeEventsRequest struct {
	Limit  int      `json:"limit" binding:"required"`
	Makers []string `json:"makers" binding:"required"`
}

// ConsumeEvents handles POST /markets/:marketID/events/consume.
func (h *Market) ConsumeEvents(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	var req consumeEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.CodeInvalidParameter, err.Error())
		return
	}
	consumed, err := m.ConsumeEvents(req.Limit, req.Makers)
	if err != nil {
		common.FailEngineError(c, err)
		return
	}
	metrics.EventQueueDepth.WithLabelValues(m.ID).Set(float64(m.EventQueueLen()))
	common.Success(c, gin.H{"consumed": consumed})
}

// GetBook handles GET /markets/:marketID/book. It serves a redis-cached
// snapshot when fresh and recomputes (refreshing the cache) on a miss —
// the live book is always authoritative, the cache only saves a
// mutex-guarded recompute under read load.
func (h *Market) GetBook(c *gin.Context) {
	m, ok := h.lookupMarket(c)
	if !ok {
		return
	}
	marketID := c.Param("marketID")
	bestBid, bestAsk, cached := h.App.BookCache.Get(c.Request.Context(), marketID)
	if !cached {
		bestBid, bestAsk = m.BestBidAsk()
		h.App.BookCache.Set(c.Request.Context(), marketID, bestBid, bestAsk)
	}
	recordBookDepth(m)
	common.Success(c, gin.H{
		"best_bid":         bestBid,
		"best_ask":         bestAsk,
		"best_bid_display": decimal.New(bestBid, 0),
		"best_ask_display": decimal.New(bestAsk, 0),
		"event_queue_len":  m.EventQueueLen(),
	})
}

// Stream handles GET /markets/:marketID/stream, a websocket feed of
// advisory notifications for one market — see internal/notify's doc
// comment on why this is best-effort, never authoritative.
func (h *Market) Stream(c *gin.Context) {
	marketID := c.Param("marketID")
	if h.App.Market(marketID) == nil {
		common.Fail(c, http.StatusNotFound, xerr.CodeOrderNotFound, "market not found")
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for ev := range h.App.Bus.C() {
		if ev.MarketID != marketID {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (h *Market) lookupMarket(c *gin.Context) (*clob.Market, bool) {
	m := h.App.Market(c.Param("marketID"))
	if m == nil {
		common.Fail(c, http.StatusNotFound, xerr.CodeOrderNotFound, "market not found")
		return nil, false
	}
	return m, true
}

func parseSide(s string) (clob.Side, error) {
	switch s {
	case "bid":
		return clob.Bid, nil
	case "ask":
		return clob.Ask, nil
	default:
		return 0, errInvalidSide
	}
}

func parseAssetSide(s string) (clob.AssetSide, error) {
	switch s {
	case "base":
		return clob.Base, nil
	case "quote":
		return clob.Quote, nil
	default:
		return 0, errInvalidSide
	}
}

func parseTimeInForce(s string) (clob.TimeInForce, error) {
	switch s {
	case "", "gtc":
		return clob.GTC, nil
	case "ioc":
		return clob.IOC, nil
	case "fok":
		return clob.FOK, nil
	default:
		return 0, errInvalidSide
	}
}

var errInvalidSide = &invalidParamError{"invalid side/time_in_force"}

type invalidParamError struct{ msg string }

func (e *invalidParamError) Error() string { return e.msg }
