package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/discount-store/internal/cache"
	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/config"
	"github.com/noah-isme/discount-store/internal/discount"
	"github.com/noah-isme/discount-store/internal/health"
	"github.com/noah-isme/discount-store/internal/obs"
	"github.com/noah-isme/discount-store/internal/ratelimit"
	"github.com/noah-isme/discount-store/internal/resilience"
)

// Dependencies holds the shared clients and collaborators the router is built from.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Products  catalog.Catalog
	Discounts discount.Source
	Limiter   ratelimit.Limiter
	Registry  *prometheus.Registry
	Tracing   bool
}

// Connect opens Postgres and Redis and assembles the cached catalog and
// discount sources on top of them.
func Connect(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "discount-store"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	limiter, err := ratelimit.NewRedis(rdb, cfg.RedisKeyPrefix, cfg.RateLimit.CartMax, cfg.RateLimit.CartWindow)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	d := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		DB:       pool,
		Redis:    rdb,
		Limiter:  limiter,
		Registry: reg,
		Tracing:  cfg.Obs.EnableTracing,
	}
	resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, reg)
	dbBreaker := resilience.NewBreaker("postgres", 5, 0.5, 10*time.Second).WithLogger(&d.Logger)
	d.Products, d.Discounts = CachedSources(cfg, rdb,
		catalog.Guarded{Inner: catalog.NewStore(pool), Breaker: dbBreaker},
		discount.Guarded{Inner: discount.NewStore(pool), Breaker: dbBreaker},
		&d.Logger)
	return d, nil
}

// CachedSources puts the Redis read-through caches in front of the stores.
func CachedSources(cfg *config.Config, rdb *redis.Client, products catalog.Catalog, discounts discount.Source, logger *zerolog.Logger) (catalog.Catalog, discount.Source) {
	return catalog.CachedLookup{
			Inner:  products,
			Cache:  cache.New(rdb, cfg.RedisKeyPrefix, cfg.Cache.CatalogTTL),
			Logger: logger,
		}, discount.CachedSource{
			Inner:  discounts,
			Cache:  cache.New(rdb, cfg.RedisKeyPrefix, cfg.Cache.DiscountTTL),
			Logger: logger,
		}
}

// InvalidatePromotions drops the cached discount definitions so freshly
// migrated or seeded deals are read from Postgres on the next lookup.
func InvalidatePromotions(ctx context.Context, cfg *config.Config, rdb *redis.Client) error {
	src := discount.CachedSource{Cache: cache.New(rdb, cfg.RedisKeyPrefix, cfg.Cache.DiscountTTL)}
	if err := src.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate discount cache: %w", err)
	}
	return nil
}

// Probes returns the readiness checks for the configured backends.
func (d *Dependencies) Probes() map[string]health.Probe {
	probes := map[string]health.Probe{}
	if d.DB != nil {
		probes["db"] = health.Postgres(d.DB)
	}
	if d.Redis != nil {
		probes["redis"] = health.Redis(d.Redis)
	}
	return probes
}

// Close releases the backend connections.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
