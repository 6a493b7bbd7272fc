// Package http assembles clobd's gin engine: prometheus scraping, otel
// spans, request ids, CORS, panic recovery, and per-IP rate limiting, in
// the same order internal/api-geteway/http.NewRouter chains them.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprom "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gopherex.com/internal/clobd/app"
	"gopherex.com/internal/clobd/http/router"
	"gopherex.com/pkg/middleware"
)

func NewRouter(addr string, a *app.App) *http.Server {
	ctx, cancel := context.WithCancel(context.Background())
	_ = cancel // janitor runs for the process lifetime; no explicit Stop route yet

	a.Limiter.StartJanitor(ctx, time.Minute)

	r := gin.New()
	p := ginprom.NewPrometheus("clob")
	p.Use(r)

	r.Use(
		otelgin.Middleware("clobd"),
		middleware.ReqId(),
		cors.Default(),
		middleware.Recover(),
		middleware.RateLimit(a.Limiter),
	)

	api := r.Group("/api")
	router.Market(api, a)

	return &http.Server{
		Addr:           addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
