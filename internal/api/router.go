package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/mtmengine/internal/metrics"
	"github.com/guttosm/mtmengine/internal/middleware"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	// RequestTimeout bounds every request context. Zero means 30s.
	RequestTimeout time.Duration
	// RateLimit is the per-IP request budget per minute. Zero disables it.
	RateLimit int
}

// NewRouter creates the gin engine with middlewares, /metrics, swagger and
// the /api/v1 routes. Health probes are registered by app.InitializeApp.
func NewRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		metrics.Middleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(cfg.RateLimit, time.Minute),
	)

	// ─── Timeout ──────────────────────────────────
	// A book valuation walks every leg against the price store, so the
	// budget is wider than a single lookup needs.
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Observability ────────────────────────────
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		v1.GET("/exposure", handler.GetExposure)
		v1.GET("/legs/:id/mtm", handler.GetLegMTM)
		v1.GET("/book/mtm", handler.GetBookMTM)
		v1.GET("/prices/:instrument/series", handler.GetPriceSeries)
		v1.GET("/instruments", handler.GetInstruments)
	}

	return router
}
