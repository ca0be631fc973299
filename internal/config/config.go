package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	RedisKeyPrefix     string
	CORSAllowedOrigins []string
	CurrencyCode       string
	MigrateOnStart     bool

	Cart      CartConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Obs       ObsConfig
}

// CartConfig controls the cart session cookie and per-session lock.
type CartConfig struct {
	SessionCookie    string
	SessionTTL       time.Duration
	SessionSecure    bool
	LockTTL          time.Duration
	LockRetryBackoff time.Duration
	IdempotencyTTL   time.Duration
}

// CacheConfig sets read-through cache lifetimes. Zero disables a cache.
type CacheConfig struct {
	CatalogTTL  time.Duration
	DiscountTTL time.Duration
}

// RateLimitConfig bounds cart writes per client IP.
type RateLimitConfig struct {
	CartMax    int
	CartWindow time.Duration
}

// ObsConfig configures logging, metrics and tracing.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	EnablePrometheus bool
	EnableTracing    bool
	OTLPEndpoint     string
	SamplingRatio    float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		RedisKeyPrefix:     valueOrDefault(k.String("REDIS_KEY_PREFIX"), "store:"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START"), false),
		Cart: CartConfig{
			SessionCookie:    valueOrDefault(k.String("CART_SESSION_COOKIE"), "cart_session"),
			SessionTTL:       parseDuration(k.String("CART_SESSION_TTL"), "168h"),
			SessionSecure:    parseBool(k.String("CART_SESSION_SECURE"), false),
			LockTTL:          parseDuration(k.String("CART_LOCK_TTL"), "5s"),
			LockRetryBackoff: parseDuration(k.String("CART_LOCK_RETRY_BACKOFF"), "25ms"),
			IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		},
		Cache: CacheConfig{
			CatalogTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
			DiscountTTL: parseDuration(k.String("DISCOUNT_CACHE_TTL"), "1m"),
		},
		RateLimit: RateLimitConfig{
			CartMax:    parseInt(k.String("RATE_LIMIT_CART_MAX"), 120),
			CartWindow: parseDuration(k.String("RATE_LIMIT_CART_WINDOW"), "1m"),
		},
		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "discount_store"),
			EnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			EnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production") || strings.EqualFold(c.AppEnv, "prod")
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
