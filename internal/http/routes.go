package http

import (
	"time"

	"referral_ledger/internal/http/handlers"
	"referral_ledger/internal/http/middleware"
	"referral_ledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps carries everything the router needs
type Deps struct {
	Ledger  *service.LedgerService
	DB      handlers.Pinger
	Redis   *redis.Client // nil selects the in-process rate limiter
	Version string

	RateLimit  int
	RateWindow time.Duration
	// RequestTimeout bounds each API request, zero disables it
	RequestTimeout time.Duration

	// RequireInitData enables the Mini App init-data guard with BotToken
	RequireInitData bool
	BotToken        string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Ledger)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Version)

	r.Use(middleware.RequestLogger(), middleware.CORS(), middleware.Metrics())

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chain := []gin.HandlerFunc{
		middleware.RateLimit(d.Redis, d.RateLimit, d.RateWindow),
		middleware.Timeout(d.RequestTimeout),
	}
	if d.RequireInitData {
		chain = append(chain, middleware.TelegramInitData(d.BotToken, 0))
	}
	chain = append(chain, h.Dispatch)

	r.Any("/api", chain...)
	r.Any("/", chain...)

	r.NoRoute(handlers.NotFound)
	r.NoMethod(handlers.NotFound)
}
