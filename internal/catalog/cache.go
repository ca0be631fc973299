package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/discount-store/internal/cache"
)

// CachedLookup is a read-through Redis cache in front of another catalog.
// Cache failures are logged and fall through to the inner catalog.
type CachedLookup struct {
	Inner  Catalog
	Cache  *cache.JSON
	Logger *zerolog.Logger
}

// ProductByID implements Lookup.
func (c CachedLookup) ProductByID(ctx context.Context, id int64) (Product, error) {
	key := cache.KeyProduct(id)
	var cached Product
	if ok, err := c.Cache.Get(ctx, key, &cached); err != nil {
		c.warn(err, key)
	} else if ok {
		return cached, nil
	}
	p, err := c.Inner.ProductByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := c.Cache.Set(ctx, key, p); err != nil {
		c.warn(err, key)
	}
	return p, nil
}

// List implements Lister.
func (c CachedLookup) List(ctx context.Context) ([]Product, error) {
	key := cache.KeyProductList()
	var cached []Product
	if ok, err := c.Cache.Get(ctx, key, &cached); err != nil {
		c.warn(err, key)
	} else if ok {
		return cached, nil
	}
	products, err := c.Inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Set(ctx, key, products); err != nil {
		c.warn(err, key)
	}
	return products, nil
}

func (c CachedLookup) warn(err error, key string) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn().Err(err).Str("key", key).Msg("catalog cache")
}
