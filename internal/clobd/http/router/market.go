package router

import (
	"github.com/gin-gonic/gin"
	"gopherex.com/internal/clobd/app"
	"gopherex.com/internal/clobd/handler"
	"gopherex.com/pkg/middleware"
)

// Market registers the six top-level market operations plus the advisory
// book snapshot and websocket stream, the same api.Group("/x") shape as
// router.User/router.Waller.
func Market(api *gin.RouterGroup, a *app.App) {
	h := handler.New(a)
	markets := api.Group("/markets")
	{
		markets.POST("/:marketID", middleware.Sentinel("initialize"), h.Initialize)
		markets.POST("/:marketID/deposit", h.Deposit)
		markets.POST("/:marketID/withdraw", h.Withdraw)
		markets.POST("/:marketID/orders", middleware.Sentinel("place_limit_order"), h.PlaceOrder)
		markets.DELETE("/:marketID/orders/:orderID", middleware.Sentinel("cancel_order"), h.CancelOrder)
		markets.POST("/:marketID/events/consume", h.ConsumeEvents)
		markets.GET("/:marketID/book", h.GetBook)
		markets.GET("/:marketID/stream", h.Stream)
	}
}
