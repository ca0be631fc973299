package catalog

import (
	"context"
	"errors"

	"github.com/noah-isme/discount-store/internal/resilience"
)

// Guarded routes lookups through a circuit breaker so a failing database
// answers fast instead of stacking up timeouts. ErrNotFound is a healthy answer.
type Guarded struct {
	Inner   Catalog
	Breaker *resilience.Breaker
}

func notFound(err error) bool { return errors.Is(err, ErrNotFound) }

// ProductByID implements Lookup.
func (g Guarded) ProductByID(ctx context.Context, id int64) (Product, error) {
	return resilience.Call(ctx, g.Breaker, notFound, func(ctx context.Context) (Product, error) {
		return g.Inner.ProductByID(ctx, id)
	})
}

// List implements Lister.
func (g Guarded) List(ctx context.Context) ([]Product, error) {
	return resilience.Call(ctx, g.Breaker, nil, g.Inner.List)
}
