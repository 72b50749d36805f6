package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/guttosm/mtmengine/config"
	"github.com/guttosm/mtmengine/internal/api"
	"github.com/guttosm/mtmengine/internal/exposure"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/mtm"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
	"github.com/guttosm/mtmengine/internal/service"
	"github.com/guttosm/mtmengine/internal/storage"
)

// Services is the wired service layer shared by the API and the CLI modes.
type Services struct {
	Exposure  service.ExposureService
	Valuation service.ValuationService

	db  *sql.DB
	rdb *redis.Client
}

// Close releases the database pool and the Redis client.
func (s *Services) Close() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// InitializeServices connects Postgres and (optionally) Redis from
// config.AppConfig and wires repositories, price store and engines.
func InitializeServices() (*Services, error) {
	cfg := config.AppConfig

	vocab, err := cfg.Engine.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("failed to load product vocabulary: %w", err)
	}

	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	rdb, err := redisOpener(cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	return newServices(db, rdb, vocab, cfg.Engine, cfg.Redis), nil
}

func newServices(db *sql.DB, rdb *redis.Client, vocab product.Vocabulary, engineCfg config.EngineConfig, redisCfg config.RedisConfig) *Services {
	mapper := product.NewMapper(vocab)

	trades := storage.NewTradeRepository(db, mapper)
	priceRepo := storage.NewPriceRepository(db)

	var prices pricing.PriceStore = priceRepo
	if rdb != nil {
		prices = storage.NewCachedPriceStore(priceRepo, rdb, redisCfg.TTL)
	}

	exposureEngine := exposure.NewEngine(mapper, exposure.Config{ProratePricingPeriods: engineCfg.ProratePricingPeriods})
	var mtmCfg mtm.Config
	if engineCfg.EFPInstrument != "" {
		mtmCfg.EFPInstrument = mapper.Canonical(engineCfg.EFPInstrument)
	}

	logger.L().Info().
		Int("products", len(vocab.Entries)).
		Bool("price_cache", rdb != nil).
		Int("horizon_months", engineCfg.HorizonMonths).
		Msg("services initialized")

	return &Services{
		Exposure:  service.NewExposureService(trades, exposureEngine, engineCfg.HorizonMonths),
		Valuation: service.NewValuationService(trades, prices, priceRepo, mapper, mtmCfg),
		db:        db,
		rdb:       rdb,
	}
}

// InitializeApp wires the services into the gin router and registers the
// health probes. The returned cleanup closes every connection.
func InitializeApp() (*gin.Engine, func(), error) {
	svc, err := InitializeServices()
	if err != nil {
		return nil, nil, err
	}
	cfg := config.AppConfig

	handler := api.NewHandler(svc.Exposure, svc.Valuation)
	router := api.NewRouter(handler, api.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
	})

	optional := map[string]api.Check{}
	if svc.rdb != nil {
		optional["redis"] = func(ctx context.Context) error { return svc.rdb.Ping(ctx).Err() }
	}
	api.NewHealthHandler(map[string]api.Check{"postgres": svc.db.PingContext}, optional).Register(router)

	return router, svc.Close, nil
}
