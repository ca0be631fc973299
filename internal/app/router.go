package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/discount-store/internal/cart"
	"github.com/noah-isme/discount-store/internal/catalog"
	"github.com/noah-isme/discount-store/internal/common"
	"github.com/noah-isme/discount-store/internal/discount"
	"github.com/noah-isme/discount-store/internal/health"
	"github.com/noah-isme/discount-store/internal/lock"
	"github.com/noah-isme/discount-store/internal/obs"
	"github.com/noah-isme/discount-store/internal/ratelimit"
	"github.com/noah-isme/discount-store/internal/security"
)

// maxCartBody bounds cart write payloads; they only ever carry a product ID.
const maxCartBody = 4 << 10

// NewRouter wires every HTTP route of the store.
func NewRouter(d *Dependencies) http.Handler {
	cfg := d.Config
	logger := d.Logger

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus && d.Registry != nil {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, nil, d.Registry)
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, d.Registry)
	}

	pipeline := cart.NewPipeline(d.Products, cart.DefaultRules(d.Discounts), &logger)
	cartHandler := cart.NewHandler(cart.Handler{
		Pipeline: pipeline,
		Sessions: cart.SessionStore{R: d.Redis, TTL: cfg.Cart.SessionTTL, Prefix: cfg.RedisKeyPrefix},
		Lock: lock.Locker{
			R:            d.Redis,
			Prefix:       cfg.RedisKeyPrefix,
			RetryBackoff: cfg.Cart.LockRetryBackoff,
			MaxWait:      2 * cfg.Cart.LockTTL,
		},
		LockTTL:  cfg.Cart.LockTTL,
		Cookie:   cart.Cookie{Name: cfg.Cart.SessionCookie, TTL: cfg.Cart.SessionTTL, Secure: cfg.Cart.SessionSecure},
		Currency: cfg.CurrencyCode,
		Logger:   &logger,
	})
	catalogHandler := &catalog.Handler{Products: d.Products, Currency: cfg.CurrencyCode}
	promoHandler := &discount.Handler{Source: d.Discounts}
	healthHandler := health.Handler{Probes: d.Probes()}

	idem := common.Idem{R: d.Redis, TTL: cfg.Cart.IdempotencyTTL, Prefix: cfg.RedisKeyPrefix}
	limit := ratelimit.Handler{
		Limiter: d.Limiter,
		Key:     ratelimit.ByClientIP,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(otelhttp.NewMiddleware("discount-store"))
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, SessionCookie: cfg.Cart.SessionCookie}.Middleware)
	r.Use(security.Headers{EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if httpMetrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(prometheus.Gatherer(d.Registry), promhttp.HandlerOpts{}))
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.List)
		v.Get("/promotions", promoHandler.List)
		v.Route("/cart", func(c chi.Router) {
			cartHandler.Routes(c, limit.Middleware, security.BodyLimit{Max: maxCartBody}.Middleware, idem.Middleware)
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
