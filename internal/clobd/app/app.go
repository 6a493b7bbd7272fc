// Package app assembles clobd's process-wide dependencies (config, logger,
// flow control, circuit breaker, tracer, and the live market registry) the
// way internal/api-geteway/app and internal/funds/app assemble theirs, then
// hands cmd/clobd a single StartHttp entrypoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	sentinels "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/flow"
	"golang.org/x/time/rate"
	"gopherex.com/internal/clob"
	"gopherex.com/internal/clobd/bookcache"
	clobdcfg "gopherex.com/internal/clobd/config"
	chttp "gopherex.com/internal/clobd/http"
	"gopherex.com/internal/notify"
	"gopherex.com/internal/vault"
	vipconfig "gopherex.com/pkg/config"
	"gopherex.com/pkg/logger"
	"gopherex.com/pkg/ratelimit"
	"gopherex.com/pkg/trace"
	"gopherex.com/pkg/xredis"
)

// App owns every long-lived collaborator a market needs: the token vault,
// the notification bus, and the in-memory registry of markets created via
// the initialize operation. Markets are never removed once created.
type App struct {
	cfg clobdcfg.Cfg
	ctx context.Context

	Vault     clob.TokenVault
	Bus       *notify.Bus
	CB        *ratelimit.Manager
	Limiter   *ratelimit.Store
	BookCache *bookcache.Cache

	mu      sync.RWMutex
	markets map[string]*clob.Market

	traceShutdown func(context.Context) error
}

// New loads configName (config/<configName>.yaml) and wires every ambient
// collaborator. It does not start listening; call StartHttp for that.
func New(configName string) (*App, error) {
	if configName == "" {
		configName = "clobd"
	}
	cfg := &clobdcfg.Cfg{}
	if _, err := vipconfig.LoadAndWatch(configName, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	svcName := cfg.Name
	if svcName == "" {
		svcName = "clobd"
	}
	logger.Init(svcName, cfg.Log.Level)

	ledger := vault.NewLedger()
	cb := ratelimit.NewManager(ratelimit.Rule{
		TripConsecutiveFailures: orDefaultU32(cfg.CircuitBreaker.TripConsecutiveFailures, 10),
		Timeout:                 time.Duration(orDefaultI(cfg.CircuitBreaker.TimeoutSeconds, 3)) * time.Second,
	}, nil)

	app := &App{
		cfg:       *cfg,
		Vault:     vault.NewCircuitBreakerVault(ledger, cb),
		Bus:       notify.NewBus(cfg.Notify.BufferSize),
		CB:        cb,
		Limiter:   ratelimit.NewStore(rate.Limit(orDefaultF(cfg.RateLimit.RequestsPerSecond, 50)), orDefaultI(cfg.RateLimit.Burst, 100), idleTTL(cfg)),
		BookCache: bookcache.New(nil, time.Duration(cfg.Redis.BookTTLMs)*time.Millisecond),
		markets:   make(map[string]*clob.Market),
	}

	if cfg.Redis.Addr != "" {
		rdb, err := xredis.NewRedis(&xredis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.Database})
		if err != nil {
			log.Printf("book cache disabled: %v", err)
		} else {
			app.BookCache = bookcache.New(rdb, time.Duration(cfg.Redis.BookTTLMs)*time.Millisecond)
		}
	}

	return app, nil
}

// StartService initializes process-wide infra (sentinel, tracing) and
// returns a cleanup func the caller should defer.
func (app *App) StartService(ctx context.Context) func() {
	app.ctx = ctx

	if app.cfg.Trace.Enabled {
		shutdown, err := trace.InitTrace(app.cfg.Name)
		if err != nil {
			log.Fatalf("init tracer: %v", err)
		}
		app.traceShutdown = shutdown
	}

	if app.cfg.Sentinel.Enabled {
		app.initSentinel()
	}

	return func() {
		if app.traceShutdown != nil {
			_ = app.traceShutdown(ctx)
		}
		logger.Sync()
	}
}

func (app *App) initSentinel() {
	if err := sentinels.InitDefault(); err != nil {
		log.Fatalf("init sentinel: %v", err)
	}
	rules := make([]*flow.Rule, 0, len(app.cfg.Sentinel.Flow))
	for _, r := range app.cfg.Sentinel.Flow {
		rules = append(rules, &flow.Rule{
			Resource:               r.Resource,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              r.Threshold,
			StatIntervalInMs:       orDefaultU32(r.StatIntervalMs, 1000),
		})
	}
	if len(rules) > 0 {
		if _, err := flow.LoadRules(rules); err != nil {
			log.Fatalf("load flow rules: %v", err)
		}
	}
}

// StartHttp builds the gin-backed *http.Server; the caller owns
// ListenAndServe/Shutdown.
func (app *App) StartHttp() *http.Server {
	return chttp.NewRouter(app.cfg.HTTP.Addr, app)
}

// Market returns the live market by id, or nil if none was initialized.
func (app *App) Market(id string) *clob.Market {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.markets[id]
}

// CreateMarket builds and registers a new market, failing if id is already
// taken — markets are created exactly once, never reconfigured in place.
func (app *App) CreateMarket(id, baseMint, quoteMint string, baseLotSize, quoteTickSize int64) (*clob.Market, error) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if _, exists := app.markets[id]; exists {
		return nil, fmt.Errorf("market %q already initialized", id)
	}
	m := clob.NewMarket(id, app.Vault, notify.NewClobNotifier(app.Bus, id))
	if err := m.Initialize(baseMint, quoteMint, baseLotSize, quoteTickSize); err != nil {
		return nil, err
	}
	app.markets[id] = m
	return m, nil
}

func orDefaultI(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultU32(v, def uint32) uint32 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultF(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func idleTTL(cfg *clobdcfg.Cfg) time.Duration {
	if cfg.RateLimit.IdleTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(cfg.RateLimit.IdleTTLMinutes) * time.Minute
}
