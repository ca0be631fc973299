package main

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/discount-store/internal/app"
	"github.com/noah-isme/discount-store/internal/config"
	"github.com/noah-isme/discount-store/internal/db"
	"github.com/noah-isme/discount-store/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel)

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	logger.Info().Msg("schema and seed data up to date")

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(opts)
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.InvalidatePromotions(ctx, cfg, rdb); err != nil {
		logger.Warn().Err(err).Msg("promotions may be served stale until the cache expires")
		return
	}
	logger.Info().Msg("discount cache cleared")
}
