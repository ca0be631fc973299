package discount

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/discount-store/internal/cache"
)

// CachedSource is a read-through Redis cache in front of another Source.
// An empty definition set is cached too: it is the normal "no promotion" case.
type CachedSource struct {
	Inner  Source
	Cache  *cache.JSON
	Logger *zerolog.Logger
}

// DefinitionsByType implements Source.
func (c CachedSource) DefinitionsByType(ctx context.Context, t Type) ([]Definition, error) {
	key := cache.KeyDiscounts(int(t))
	var cached []Definition
	ok, err := c.Cache.Get(ctx, key, &cached)
	if err != nil && c.Logger != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("discount cache read")
	}
	if ok && err == nil {
		if cached == nil {
			cached = []Definition{}
		}
		return cached, nil
	}
	defs, err := c.Inner.DefinitionsByType(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Set(ctx, key, defs); err != nil && c.Logger != nil {
		c.Logger.Warn().Err(err).Str("key", key).Msg("discount cache write")
	}
	return defs, nil
}

// Invalidate drops cached definitions for every rule type.
func (c CachedSource) Invalidate(ctx context.Context) error {
	keys := make([]string, 0, len(Types()))
	for _, t := range Types() {
		keys = append(keys, cache.KeyDiscounts(int(t)))
	}
	return c.Cache.Delete(ctx, keys...)
}
